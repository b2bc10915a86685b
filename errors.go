/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	ErrUnauthorized       = errors.New("only the host may do that")
	ErrUnknownRoom        = errors.New("room does not exist")
	ErrInvalidPlayerCount = errors.New("invalid player count: at least 3 players are required")
	ErrInvalidWolfCount   = errors.New("invalid wolf count: there must be at least 1 wolf and fewer wolves than players")
	ErrInvalidCustomWords = errors.New("invalid custom words: please enter both custom words")
	ErrGameInProgress     = errors.New("game already in progress: this room is not accepting new players")
	ErrAlreadyJoined      = errors.New("this connection has already joined a room")
)

// newLogger builds the process logger. Without verbose only warnings and
// errors are printed.
func newLogger(cfg *Config) (*zap.SugaredLogger, error) {
	level := zapcore.WarnLevel
	if cfg.verbose {
		level = zapcore.InfoLevel
	}

	zc := zap.NewProductionConfig()
	zc.Level = zap.NewAtomicLevelAt(level)
	zc.Encoding = "console"
	zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	zc.DisableCaller = true
	zc.DisableStacktrace = true

	logger, err := zc.Build()
	if err != nil {
		return nil, err
	}

	return logger.Sugar(), nil
}

func newPage(prefix, title, body string) string {
	var htmlBody strings.Builder

	htmlBody.WriteString(`<!DOCTYPE html><html lang="en"><head>`)
	htmlBody.WriteString(getFavicon(prefix))
	htmlBody.WriteString(`<link rel="stylesheet" href="` + prefix + `/assets/app.css">`)
	htmlBody.WriteString(fmt.Sprintf("<title>%s</title></head>", title))
	htmlBody.WriteString(fmt.Sprintf("<body class=\"notice\"><a href=\"%s/\">%s</a></body></html>", prefix, body))

	return htmlBody.String()
}
