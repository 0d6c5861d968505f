package main

// GlobalFlags are persistent flags shared by every command. Non-empty values
// override the config file.
type GlobalFlags struct {
	ConfigPath string
	PIDFile    string
	Tool       string
	LogLevel   string
	LogFile    string
	HistoryDSN string
}

// StatusFlags holds flags for the status command.
type StatusFlags struct {
	JSON     bool
	Listen   string
	BasePath string
}
