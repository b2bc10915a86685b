/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	_ "embed"
	"net/http"

	"github.com/julienschmidt/httprouter"
	"go.uber.org/zap"
)

//go:embed favicons/favicon.svg
var favicon []byte

func getFavicon(prefix string) string {
	return `<link rel="icon" type="image/svg+xml" href="` + prefix + `/favicon.svg">
	<meta name="theme-color" content="#2b2d42">`
}

func serveFavicon(cfg *Config, log *zap.SugaredLogger) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		w.Header().Set("Content-Type", "image/svg+xml")
		cacheHeaders(w)
		securityHeaders(cfg, w)

		_, err := w.Write(favicon)
		if err != nil {
			log.Errorf("ERROR: %v", err)
		}
	}
}
