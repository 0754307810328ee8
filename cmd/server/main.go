package main

import (
	"flag"

	"github.com/odiseo-io/email-service/internal/config"
	"github.com/odiseo-io/email-service/internal/server"
	"github.com/zeromicro/go-zero/core/conf"
	"github.com/zeromicro/go-zero/core/logx"
)

func main() {
	configFile := flag.String("f", "etc/email-service.yaml", "config file path")
	flag.Parse()

	logx.DisableStat()

	var c config.Config
	conf.MustLoad(*configFile, &c, conf.UseEnv())
	logx.Must(c.Validate())

	s, err := server.New(c)
	logx.Must(err)

	s.Start()
}
