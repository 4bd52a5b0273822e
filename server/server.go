package server

import (
	"crypto/tls"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"

	"pmsync/internal"
	"pmsync/internal/config"
	"pmsync/utility"
)

const feedEndpoint = "/ws/jobs"

type Server struct {
	conf       *config.Config
	httpServer *http.Server
	logger     internal.LogHandler
}

// NewServer routes the API and the job feed on one listener.
func NewServer(conf *config.Config, api *Api, feed *JobFeed) *Server {
	router := httprouter.New()
	api.Register(router)
	router.GET(feedEndpoint, feed.Serve)
	return &Server{
		conf: conf,
		httpServer: &http.Server{
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

func (s *Server) SetLogger(logger internal.LogHandler) {
	s.logger = logger
}

func (s *Server) Start() error {
	if s.conf == nil {
		return utility.Err("configuration not loaded")
	}
	serverAddress := fmt.Sprintf("%s:%s", s.conf.Listen.BindIP, s.conf.Listen.Port)
	s.debug(fmt.Sprintf("starting server on %s", serverAddress))
	listener, err := net.Listen("tcp", serverAddress)
	if err != nil {
		return err
	}
	if s.conf.Listen.TLS {
		s.debug("starting https TLS server")
		s.httpServer.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
		return s.httpServer.ServeTLS(listener, s.conf.Listen.CertFile, s.conf.Listen.KeyFile)
	}
	s.debug("starting http server")
	return s.httpServer.Serve(listener)
}

func (s *Server) debug(text string) {
	if s.logger != nil {
		s.logger.Debug(text)
	}
}
