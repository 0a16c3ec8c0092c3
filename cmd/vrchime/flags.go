package main

import "time"

// GlobalFlags holds persistent flags shared by every command.
type GlobalFlags struct {
	ConfigPath string
	LogLevel   string
	// Remote server connection; empty runs locally
	APIUrl     string
	APITimeout time.Duration
}

// LaunchFlags Flag structs to decouple cobra from logic for testing.
type LaunchFlags struct {
	GamePath string
	File     string
	Count    uint32
	ArgMode  string
}

type HistoryFlags struct {
	Limit int
}

type ServeFlags struct {
	Listen        string
	BasePath      string
	MetricsListen string
}
