package configuration

import (
	"encoding/json"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type MongoConfig struct {
	Uri                     string `json:"uri"`
	Database                string `json:"database"`
	ConversationsCollection string `json:"conversationsCollection"`
	MessagesCollection      string `json:"messagesCollection"`
	UsersCollection         string `json:"usersCollection"`
	SocketRoute             string `json:"socketRoute"`
}

type ServerConfig struct {
	AppPort    int `json:"app_port"`
	SocketPort int `json:"socket_port"`
}

type CORSConfig struct {
	AllowedOrigins []string `json:"allowed_origins"`
}

type CallConfig struct {
	TokenSecret     string `json:"token_secret"`
	TokenTTLMinutes int    `json:"token_ttl_minutes"`
}

type Config struct {
	ChatDatabase MongoConfig  `json:"mongo"`
	Server       ServerConfig `json:"server"`
	CORS         CORSConfig   `json:"cors"`
	Call         CallConfig   `json:"call"`
}

// LoadConfig reads the JSON config file, then applies environment
// overrides. A .env file is loaded when present so local runs do not
// need exported variables.
func LoadConfig(configPath string) (*Config, error) {
	_ = godotenv.Load()

	file, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	var config Config
	if err = json.Unmarshal(file, &config); err != nil {
		return nil, err
	}

	applyEnvOverrides(&config)
	config.applyDefaults()

	return &config, nil
}

func applyEnvOverrides(config *Config) {
	if v := os.Getenv("TASKORA_MONGO_URI"); v != "" {
		config.ChatDatabase.Uri = v
	}
	if v := os.Getenv("TASKORA_MONGO_DATABASE"); v != "" {
		config.ChatDatabase.Database = v
	}
	if v := os.Getenv("TASKORA_APP_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			config.Server.AppPort = port
		}
	}
	if v := os.Getenv("TASKORA_SOCKET_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			config.Server.SocketPort = port
		}
	}
	if v := os.Getenv("TASKORA_CALL_TOKEN_SECRET"); v != "" {
		config.Call.TokenSecret = v
	}
}

func (c *Config) applyDefaults() {
	if c.ChatDatabase.ConversationsCollection == "" {
		c.ChatDatabase.ConversationsCollection = "conversations"
	}
	if c.ChatDatabase.MessagesCollection == "" {
		c.ChatDatabase.MessagesCollection = "messages"
	}
	if c.ChatDatabase.UsersCollection == "" {
		c.ChatDatabase.UsersCollection = "users"
	}
	if c.ChatDatabase.SocketRoute == "" {
		c.ChatDatabase.SocketRoute = "ws"
	}
	if c.Call.TokenTTLMinutes <= 0 {
		c.Call.TokenTTLMinutes = 15
	}
}
