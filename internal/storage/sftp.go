package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"strings"
	"sync"

	"github.com/desoftlabs/babyshop/config"
	"github.com/pkg/errors"
	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"
)

// SftpStore uploads images to a remote directory over SFTP, for
// deployments where a plain web host fronts the image directory.
type SftpStore struct {
	mu        sync.Mutex
	cfg       config.StorageConfig
	client    *sftp.Client
	publicURL string
}

func NewSftpStore(cfg config.StorageConfig) (*SftpStore, error) {
	if cfg.SftpHost == "" || cfg.SftpDir == "" {
		return nil, errors.New("sftp storage requires host and dir")
	}
	return &SftpStore{
		cfg:       cfg,
		publicURL: strings.TrimRight(cfg.PublicURL, "/"),
	}, nil
}

// connect dials lazily and reuses the session across uploads.
func (s *SftpStore) connect() (*sftp.Client, error) {
	if s.client != nil {
		return s.client, nil
	}
	sshcfg := &ssh.ClientConfig{
		User: s.cfg.SftpUser,
		Auth: []ssh.AuthMethod{
			ssh.Password(s.cfg.SftpPass),
		},
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
	}
	conn, err := ssh.Dial("tcp", s.cfg.SftpHost, sshcfg)
	if err != nil {
		return nil, errors.Wrap(err, "sftp dial")
	}
	client, err := sftp.NewClient(conn)
	if err != nil {
		_ = conn.Close()
		return nil, errors.Wrap(err, "sftp session")
	}
	s.client = client
	return client, nil
}

func (s *SftpStore) reset() {
	if s.client != nil {
		_ = s.client.Close()
		s.client = nil
	}
}

func (s *SftpStore) Put(ctx context.Context, key, contentType string, r io.Reader, size int64) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	client, err := s.connect()
	if err != nil {
		return "", err
	}
	_ = client.MkdirAll(s.cfg.SftpDir)
	remote := path.Join(s.cfg.SftpDir, key)
	f, err := client.Create(remote)
	if err != nil {
		s.reset()
		return "", errors.Wrapf(err, "sftp create %s", remote)
	}
	if _, err := io.Copy(f, r); err != nil {
		_ = f.Close()
		s.reset()
		return "", errors.Wrapf(err, "sftp write %s", remote)
	}
	if err := f.Close(); err != nil {
		s.reset()
		return "", errors.Wrapf(err, "sftp close %s", remote)
	}
	return s.URL(key), nil
}

func (s *SftpStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	client, err := s.connect()
	if err != nil {
		return err
	}
	err = client.Remove(path.Join(s.cfg.SftpDir, key))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		s.reset()
		return errors.Wrapf(err, "sftp delete %s", key)
	}
	return nil
}

func (s *SftpStore) URL(key string) string {
	return fmt.Sprintf("%s/%s", s.publicURL, key)
}
