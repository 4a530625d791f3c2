package main

import "github.com/kelseyhightower/envconfig"

type Config struct {
	BadgerFilepath string `envconfig:"BADGER_FILEPATH" required:"true"`
	// INSPECT_KIND is one of conversations, messages, members, profiles
	Kind string `envconfig:"INSPECT_KIND" default:"conversations"`
	// INSPECT_CONVERSATION narrows messages to one conversation
	Conversation string `envconfig:"INSPECT_CONVERSATION"`
}

func LoadConfig() (Config, error) {
	var cfg Config
	err := envconfig.Process("", &cfg)
	return cfg, err
}
