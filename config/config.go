package config

import (
	"os"
	"path"

	"gopkg.in/yaml.v2"
)

type SysConfig struct {
	Appid    string `yaml:"appid" json:"appid"`
	Location string `yaml:"location" json:"location"`
	Workdir  string `yaml:"workdir" json:"workdir"`
	Debug    bool   `yaml:"debug" json:"debug"`
}

type WebConfig struct {
	Host       string `yaml:"host" json:"host"`
	Port       int    `yaml:"port" json:"port"`
	Secret     string `yaml:"secret" json:"secret"`
	CorsOrigin string `yaml:"cors_origin" json:"cors_origin"`
}

type DBConfig struct {
	Type     string `yaml:"type" json:"type"`
	Host     string `yaml:"host" json:"host"`
	Port     int    `yaml:"port" json:"port"`
	Name     string `yaml:"name" json:"name"`
	User     string `yaml:"user" json:"user"`
	Passwd   string `yaml:"passwd" json:"passwd"`
	MaxConn  int    `yaml:"max_conn" json:"max_conn"`
	IdleConn int    `yaml:"idle_conn" json:"idle_conn"`
	Debug    bool   `yaml:"debug" json:"debug"`
}

type LogConfig struct {
	Mode       string `yaml:"mode" json:"mode"`
	FileEnable bool   `yaml:"file_enable" json:"file_enable"`
	Filename   string `yaml:"filename" json:"filename"`
}

// StorageConfig selects the image object-store backend. Backend is one of
// s3, sftp or disk.
type StorageConfig struct {
	Backend   string `yaml:"backend" json:"backend"`
	Endpoint  string `yaml:"endpoint" json:"endpoint"`
	Bucket    string `yaml:"bucket" json:"bucket"`
	AccessKey string `yaml:"access_key" json:"access_key"`
	SecretKey string `yaml:"secret_key" json:"secret_key"`
	UseSSL    bool   `yaml:"use_ssl" json:"use_ssl"`
	SftpHost  string `yaml:"sftp_host" json:"sftp_host"`
	SftpUser  string `yaml:"sftp_user" json:"sftp_user"`
	SftpPass  string `yaml:"sftp_pass" json:"sftp_pass"`
	SftpDir   string `yaml:"sftp_dir" json:"sftp_dir"`
	PublicURL string `yaml:"public_url" json:"public_url"`
}

// NotifyConfig holds the optional best-effort order notification channels.
type NotifyConfig struct {
	WhatsappToken   string `yaml:"whatsapp_token" json:"whatsapp_token"`
	WhatsappPhoneID string `yaml:"whatsapp_phone_id" json:"whatsapp_phone_id"`
	AdminPhone      string `yaml:"admin_phone" json:"admin_phone"`
	SmtpHost        string `yaml:"smtp_host" json:"smtp_host"`
	SmtpPort        int    `yaml:"smtp_port" json:"smtp_port"`
	SmtpUser        string `yaml:"smtp_user" json:"smtp_user"`
	SmtpPasswd      string `yaml:"smtp_passwd" json:"smtp_passwd"`
	MailTo          string `yaml:"mail_to" json:"mail_to"`
}

type CacheConfig struct {
	Enabled bool   `yaml:"enabled" json:"enabled"`
	Addr    string `yaml:"addr" json:"addr"`
}

type AppConfig struct {
	System   SysConfig     `yaml:"system" json:"system"`
	Web      WebConfig     `yaml:"web" json:"web"`
	Database DBConfig      `yaml:"database" json:"database"`
	Logger   LogConfig     `yaml:"logger" json:"logger"`
	Storage  StorageConfig `yaml:"storage" json:"storage"`
	Notify   NotifyConfig  `yaml:"notify" json:"notify"`
	Cache    CacheConfig   `yaml:"cache" json:"cache"`
}

func (c *AppConfig) InitDirs() {
	_ = os.MkdirAll(path.Join(c.System.Workdir, "logs"), 0755)
	_ = os.MkdirAll(path.Join(c.System.Workdir, "data"), 0755)
	_ = os.MkdirAll(path.Join(c.System.Workdir, "uploads"), 0755)
}

var DefaultAppConfig = &AppConfig{
	System: SysConfig{
		Appid:    "babyshop",
		Location: "Asia/Kolkata",
		Workdir:  "/var/babyshop",
		Debug:    true,
	},
	Web: WebConfig{
		Host:       "0.0.0.0",
		Port:       5000,
		Secret:     "9b6de5cc-babyshop-0768-7dfc9a4a",
		CorsOrigin: "*",
	},
	Database: DBConfig{
		Type:     "postgres",
		Host:     "127.0.0.1",
		Port:     5432,
		Name:     "babyshop",
		User:     "postgres",
		Passwd:   "root",
		MaxConn:  100,
		IdleConn: 10,
	},
	Logger: LogConfig{
		Mode:       "development",
		FileEnable: true,
		Filename:   "/var/babyshop/babyshop.log",
	},
	Storage: StorageConfig{
		Backend: "disk",
	},
}

func setEnvValue(name string, val *string) {
	if v := os.Getenv(name); v != "" {
		*val = v
	}
}

func setEnvBoolValue(name string, val *bool) {
	if v := os.Getenv(name); v != "" {
		*val = v == "true" || v == "1" || v == "on"
	}
}

// LoadConfig reads the YAML config file and applies environment overrides.
// A missing file yields the defaults.
func LoadConfig(cfile string) *AppConfig {
	if cfile == "" {
		cfile = "babyshop.yml"
	}
	cfg := DefaultAppConfig
	if _, err := os.Stat(cfile); err == nil {
		data, err := os.ReadFile(cfile)
		if err == nil {
			cfg = new(AppConfig)
			if err := yaml.Unmarshal(data, cfg); err != nil {
				panic(err)
			}
		}
	}

	setEnvValue("BABYSHOP_SYSTEM_WORKDIR", &cfg.System.Workdir)
	setEnvBoolValue("BABYSHOP_SYSTEM_DEBUG", &cfg.System.Debug)
	setEnvValue("BABYSHOP_WEB_SECRET", &cfg.Web.Secret)
	setEnvValue("BABYSHOP_DB_HOST", &cfg.Database.Host)
	setEnvValue("BABYSHOP_DB_NAME", &cfg.Database.Name)
	setEnvValue("BABYSHOP_DB_USER", &cfg.Database.User)
	setEnvValue("BABYSHOP_DB_PWD", &cfg.Database.Passwd)
	setEnvValue("BABYSHOP_STORAGE_ACCESS_KEY", &cfg.Storage.AccessKey)
	setEnvValue("BABYSHOP_STORAGE_SECRET_KEY", &cfg.Storage.SecretKey)
	setEnvValue("BABYSHOP_WHATSAPP_TOKEN", &cfg.Notify.WhatsappToken)
	setEnvValue("BABYSHOP_SMTP_PASSWD", &cfg.Notify.SmtpPasswd)

	return cfg
}
