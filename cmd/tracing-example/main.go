// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2025 Datadog, Inc.

// Command tracing-example runs a small bike rental application on in-memory
// buses instrumented by the tracing extension and reports its spans to a
// Datadog agent.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/opentracing/opentracing-go"
	"go.uber.org/zap"
	"gopkg.in/DataDog/dd-trace-go.v1/ddtrace/opentracer"
	"gopkg.in/DataDog/dd-trace-go.v1/ddtrace/tracer"

	"github.com/AxonFramework/extension-tracing-go/internal/log"
	"github.com/AxonFramework/extension-tracing-go/tracing"
)

type config struct {
	Service   string `envconfig:"SERVICE" default:"bike-rental"`
	Env       string `envconfig:"ENV" default:"local"`
	AgentAddr string `envconfig:"AGENT_ADDR" default:"localhost:8126"`
	Debug     bool   `envconfig:"DEBUG" default:"false"`
	Bikes     int    `envconfig:"BIKES" default:"3"`
}

// zapLogger routes the extension's log output to zap.
type zapLogger struct{ l *zap.SugaredLogger }

func (z zapLogger) Log(msg string) { z.l.Info(msg) }

func main() {
	os.Exit(run0())
}

func run0() int {
	// a missing .env file is fine
	_ = godotenv.Load()

	var cfg config
	if err := envconfig.Process("RENTAL", &cfg); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	zl, err := newZap(cfg.Debug)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer func() { _ = zl.Sync() }()
	defer tracing.UseLogger(zapLogger{zl.Sugar()})()
	defer log.Flush()

	props, err := tracing.LoadProperties()
	if err != nil {
		zl.Error("loading tracing properties", zap.Error(err))
		return 1
	}

	t := opentracer.New(
		tracer.WithServiceName(cfg.Service),
		tracer.WithAgentAddr(cfg.AgentAddr),
		tracer.WithGlobalTag("env", cfg.Env),
		tracer.WithDebugMode(cfg.Debug),
	)
	defer tracer.Stop()
	opentracing.SetGlobalTracer(t)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, t, props, cfg.Bikes, zl); err != nil {
		zl.Error("bike rental failed", zap.Error(err))
		return 1
	}
	return 0
}

func newZap(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
