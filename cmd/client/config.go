package main

import "time"

type Config struct {
	BadgerFilepath         string        `env:"BADGER_FILEPATH,required=true"`
	BlugeFilepath          string        `env:"BLUGE_FILEPATH"`
	LogLevel               string        `env:"LOG_LEVEL,default=INFO"`
	BufferSize             int           `env:"BUFFER_SIZE,default=100"`
	SubscriptionBufferSize int           `env:"SUBSCRIPTION_BUFFER_SIZE,default=16"`
	NoticeBufferSize       int           `env:"NOTICE_BUFFER_SIZE,default=16"`
	SinkTimeout            time.Duration `env:"SINK_TIMEOUT,default=500ms"`
	RestartInterval        time.Duration `env:"RESTART_INTERVAL,default=1s"`
	AuthSecret             string        `env:"AUTH_SECRET,required=true"`
	AuthTokenDuration      time.Duration `env:"AUTH_TOKEN_DURATION,default=24h"`
	MaxContentLength       int           `env:"MAX_CONTENT_LENGTH,default=2000"`
	LimitMessages          *int          `env:"LIMIT_MESSAGES"`
	CharacterReplacement   string        `env:"CHARACTER_REPLACEMENT,default=*"`
	Token                  string        `env:"CAMPUS_CHAT_TOKEN"`
}

// censorChar is the first rune of CharacterReplacement.
func (c Config) censorChar() rune {
	for _, r := range c.CharacterReplacement {
		return r
	}
	return '*'
}
