// Package logging builds the process logger.
package logging

import (
	"net"
	"os"

	logrustash "github.com/bshuster-repo/logrus-logstash-hook"
	"github.com/elastic/go-elasticsearch/v7"
	"github.com/sirupsen/logrus"
	"gopkg.in/go-extras/elogrus.v7"

	"lg/nutri-coach-go-api/internal/config"
)

// New returns a logrus logger writing text to stderr, with the Elasticsearch
// and Logstash hooks attached when enabled. A hook that fails to connect is
// logged and skipped; logging itself never fails.
func New(cfg *config.Config, app string) *logrus.Logger {
	logger := logrus.New()
	logger.Out = os.Stderr
	logger.SetFormatter(&logrus.TextFormatter{
		TimestampFormat: "2006-01-02 15:04:05",
		FullTimestamp:   true,
	})

	level, err := logrus.ParseLevel(cfg.Log.Level)
	if err != nil {
		logger.Warnf("[logging] unknown log level %q, using info", cfg.Log.Level)
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	if cfg.Log.ElkEnable {
		client, err := elasticsearch.NewClient(elasticsearch.Config{
			Addresses: []string{cfg.Log.ElkURL},
		})
		if err != nil {
			logger.Warnf("[logging] elasticsearch client: %v", err)
		} else if hook, err := elogrus.NewAsyncElasticHook(client, app, level, cfg.Log.ElkIndex); err != nil {
			logger.Warnf("[logging] elasticsearch hook: %v", err)
		} else {
			logger.Hooks.Add(hook)
		}
	}

	if cfg.Log.LogstashEnable {
		conn, err := net.Dial("udp", cfg.Log.LogstashURL)
		if err != nil {
			logger.Warnf("[logging] logstash dial: %v", err)
		} else {
			logger.Hooks.Add(logrustash.New(conn, logrustash.DefaultFormatter(logrus.Fields{"type": app})))
		}
	}

	return logger
}
