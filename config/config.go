package config

import (
	"encoding/json"
	"errors"
	"log"
	"os"
	"time"
)

var ErrInvalidConfig = errors.New("invalid config")

func New(loc string) (*Config, error) {
	var c Config

	f, err := os.Open(loc)
	if err != nil {
		log.Println("Config error", err)
		return nil, err
	}
	defer f.Close()

	if err := json.NewDecoder(f).Decode(&c); err != nil {
		log.Println("Config error", err)
		return nil, err
	}
	c.setDefaults()

	// secrets always come from the environment when present
	if v := os.Getenv("JWT_SECRET"); v != "" {
		c.JWTSecret = v
	}
	if v := os.Getenv("DB_PATH"); v != "" {
		c.DBPath = v
	}
	if v := os.Getenv("ADMIN_PASS"); v != "" {
		c.AdminPass = v
	}

	if c.JWTSecret == "" {
		return nil, ErrInvalidConfig
	}
	return &c, nil
}

type Config struct {
	Host string `json:"host"`
	Port string `json:"port"`

	DBPath string `json:"dbPath"`
	DBName string `json:"dbName"`

	APIPath string `json:"apiPath"`
	Sandbox bool   `json:"sandbox"`

	JWTSecret  string `json:"jwtSecret"`
	AdminEmail string `json:"adminEmail"`
	AdminPass  string `json:"adminPass"`

	AccessTokenMins  int32 `json:"accessTokenMins"`  // access token TTL, in minutes
	RefreshTokenDays int32 `json:"refreshTokenDays"` // refresh token TTL, in days
	RoleCacheMins    int32 `json:"roleCacheMins"`    // role-name projection TTL, in minutes

	Bucket struct {
		User       string `json:"user"`
		Login      string `json:"login"`
		Username   string `json:"username"`
		Subject    string `json:"subject"`
		Role       string `json:"role"`
		UserRole   string `json:"userRole"`
		Sponsor    string `json:"sponsor"`
		SponsorUsr string `json:"sponsorUsr"` // user id -> sponsor id
		Influencer string `json:"influencer"`
		InfUsr     string `json:"infUsr"` // user id -> influencer id
		Campaign   string `json:"campaign"`
		Ads        string `json:"ads"`
		Token      string `json:"token"` // revoked jti -> expiry
	} `json:"bucket"`
}

func (c *Config) setDefaults() {
	b := &c.Bucket
	set := func(p *string, v string) {
		if *p == "" {
			*p = v
		}
	}
	set(&b.User, "user")
	set(&b.Login, "login")
	set(&b.Username, "username")
	set(&b.Subject, "subject")
	set(&b.Role, "role")
	set(&b.UserRole, "userRole")
	set(&b.Sponsor, "sponsor")
	set(&b.SponsorUsr, "sponsorUsr")
	set(&b.Influencer, "influencer")
	set(&b.InfUsr, "infUsr")
	set(&b.Campaign, "campaign")
	set(&b.Ads, "ads")
	set(&b.Token, "token")

	if c.AccessTokenMins == 0 {
		c.AccessTokenMins = 15
	}
	if c.RefreshTokenDays == 0 {
		c.RefreshTokenDays = 7
	}
	if c.RoleCacheMins == 0 {
		c.RoleCacheMins = 60
	}
	if c.APIPath == "" {
		c.APIPath = "/api/v1"
	}
	if c.AdminEmail == "" {
		c.AdminEmail = "admin@sponsorly.io"
	}
}

// Sandboxed returns a config usable without a config file, for tests.
func Sandboxed() *Config {
	c := &Config{Sandbox: true, JWTSecret: "sandbox-secret", AdminPass: "12345678"}
	c.setDefaults()
	return c
}

func (c *Config) AllBuckets() []string {
	b := &c.Bucket
	return []string{
		b.User, b.Login, b.Username, b.Subject, b.Role, b.UserRole,
		b.Sponsor, b.SponsorUsr, b.Influencer, b.InfUsr,
		b.Campaign, b.Ads, b.Token,
	}
}

func (c *Config) AccessTokenAge() time.Duration {
	return time.Duration(c.AccessTokenMins) * time.Minute
}

func (c *Config) RefreshTokenAge() time.Duration {
	return time.Duration(c.RefreshTokenDays) * 24 * time.Hour
}

func (c *Config) RoleCacheAge() time.Duration {
	return time.Duration(c.RoleCacheMins) * time.Minute
}
