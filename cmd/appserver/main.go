/*
 * MIT License
 *
 * Copyright (c) 2020 Nicolas JUHEL
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 */

// Command appserver bootstraps the embeddable application server: load
// configuration, build the handler catalog and WebSocket pool, start
// listening, and run the interactive command executor on its own goroutine
// so a blocked terminal read never stalls HTTP (§4.10).
package main

import (
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/sabouaram/appserver/config"
	"github.com/sabouaram/appserver/console"
	"github.com/sabouaram/appserver/httpserver"
	"github.com/sabouaram/appserver/logger"
	"github.com/sabouaram/appserver/static"
	"github.com/sabouaram/appserver/wsocket"
)

func main() {
	os.Exit(run())
}

func run() int {
	envPath := flag.String("env", ".env", "path to the configuration file")
	flag.Parse()

	log := logger.New()

	rec, err := config.Load(*envPath)
	if err != nil {
		log.Error("loading configuration: %s", err.Error())
		return 1
	}

	wsPool := wsocket.NewPool()

	builtin := static.New(static.Config{
		Root:         "./public",
		HTMLRouting:  rec.HTMLRouting,
		CacheEnabled: rec.Cache,
		CacheSizeKB:  rec.CacheSizeKB,
	})
	builtin.SetLogger(log)
	builtin.SetWSPool(wsPool)

	catalog := httpserver.NewHandlerCatalog(builtin, log)
	catalog.SetDefault(rec.CustomDefaultHandler)
	catalog.SetUseBuiltinDefault(rec.DefaultRequestHandler)

	srv := httpserver.NewServer(rec.Port, catalog, wsPool, log)
	if err := srv.Listen(); err != nil {
		log.Error("binding port %d: %s", rec.Port, err.Error())
		return 1
	}
	log.Log("listening on port %d", srv.Port())

	exec := console.NewExecutor()
	registerCommands(exec, srv, catalog, *envPath, log)
	go exec.Run(os.Stdin, log)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sig:
		log.Log("signal received, shutting down")
	case <-exitRequested:
		log.Log("exit requested, shutting down")
	}

	exec.Stop()
	srv.Shutdown()

	return 0
}

// exitRequested bridges the executor's "exit" command back to run()'s
// select loop; the command has no direct access to that scope otherwise.
var exitRequested = make(chan struct{})

func registerCommands(exec console.Executor, srv *httpserver.Server, catalog *httpserver.HandlerCatalog, envPath string, log logger.Logger) {
	exec.Register("exit", func(args []string) error {
		closeOnce(exitRequested)
		return nil
	})

	exec.Register("reload", func(args []string) error {
		rec, err := config.Load(envPath)
		if err != nil {
			return err
		}

		// Rebuilding catalog instances from "./app/handlers/" is the
		// external loader's concern (out of scope, §1); reload here only
		// rebinds the default handler from the freshly read configuration.
		catalog.SetDefault(rec.CustomDefaultHandler)
		catalog.SetUseBuiltinDefault(rec.DefaultRequestHandler)
		log.Log("configuration reloaded; port and other bind-time settings require a full restart")
		return nil
	})
}

func closeOnce(ch chan struct{}) {
	select {
	case <-ch:
		// already closed
	default:
		close(ch)
	}
}
