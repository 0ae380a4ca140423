// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2025 Datadog, Inc.

// Package internal holds helpers shared by the packages of this module.
package internal

import (
	"os"
	"strconv"
	"time"
)

// BoolEnv returns the parsed boolean value of an environment variable, or
// def if it fails to parse.
func BoolEnv(key string, def bool) bool {
	v, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return def
	}
	return v
}

// IntEnv returns the parsed int value of an environment variable, or
// def if it fails to parse.
func IntEnv(key string, def int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return def
	}
	return v
}

// DurationEnv returns the parsed duration value of an environment variable,
// or def if it fails to parse. Plain integers are read as seconds.
func DurationEnv(key string, def time.Duration) time.Duration {
	v, ok := os.LookupEnv(key)
	if !ok {
		return def
	}
	if sec, err := strconv.ParseUint(v, 10, 64); err == nil {
		return time.Duration(sec) * time.Second
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}
