package common

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"math/big"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
)

const (
	ENABLED  = "enabled"
	DISABLED = "disabled"
)

var snowflakeNode *snowflake.Node

func init() {
	var err error
	snowflakeNode, err = snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
}

// UUIDint64 returns a snowflake id suitable for database primary keys.
func UUIDint64() int64 {
	return snowflakeNode.Generate().Int64()
}

// UUID returns the string form of a snowflake id.
func UUID() string {
	return snowflakeNode.Generate().String()
}

// Sha256HashWithSalt hashes src with the given salt appended.
func Sha256HashWithSalt(src string, salt string) string {
	h := sha256.New()
	h.Write([]byte(src + salt))
	return hex.EncodeToString(h.Sum(nil))
}

// GetSecretSalt reads the password salt from the environment, falling back
// to a fixed default for development setups.
func GetSecretSalt() string {
	salt := os.Getenv("BABYSHOP_SECRET_SALT")
	if salt == "" {
		salt = "babyshop-secret"
	}
	return salt
}

const orderIDAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

// GenerateOrderID builds a human-readable order number: a millisecond
// timestamp plus a 9 character random base36 suffix. The random part makes
// collisions between orders placed in the same millisecond implausible.
func GenerateOrderID() string {
	var sb strings.Builder
	sb.WriteString("ORD-")
	sb.WriteString(strconv.FormatInt(time.Now().UnixMilli(), 10))
	sb.WriteByte('-')
	max := big.NewInt(int64(len(orderIDAlphabet)))
	for i := 0; i < 9; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			// crypto/rand failing means the platform is broken; degrade to
			// the timestamp-derived character rather than panic.
			sb.WriteByte(orderIDAlphabet[time.Now().Nanosecond()%len(orderIDAlphabet)])
			continue
		}
		sb.WriteByte(orderIDAlphabet[n.Int64()])
	}
	return sb.String()
}

// FileExists reports whether path exists.
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
