// Package testutil provides GoConvey decorators for tests against the vault
// simulator.
package testutil

import (
	"net/http/httptest"
	"time"

	"github.com/lbijlsma/paypal-sdk-go/pkg/auth"
	"github.com/lbijlsma/paypal-sdk-go/pkg/config"
	"github.com/lbijlsma/paypal-sdk-go/pkg/rest"
	"github.com/lbijlsma/paypal-sdk-go/pkg/vaultsim"
	. "github.com/smartystreets/goconvey/convey"
	"gopkg.in/inconshreveable/log15.v2"
)

const (
	logChanBufferSize = 32

	ClientID     = "test-client"
	ClientSecret = "test-secret"
)

// WithLogger is a decorator for GoConvey based tests
//
// It will inject a logger and a log channel, where log messages can be read from.
// Records are dropped once the channel is full.
func WithLogger(f func(log15.Logger, <-chan *log15.Record)) func() {
	return func() {
		logChan := make(chan *log15.Record, logChanBufferSize)
		log := log15.New()
		log.SetHandler(nonBlocking(logChan))

		f(log, logChan)
	}
}

func nonBlocking(ch chan<- *log15.Record) log15.Handler {
	return log15.FuncHandler(func(r *log15.Record) error {
		select {
		case ch <- r:
		default:
		}
		return nil
	})
}

// Vault is a running vault simulator with a context and caller pointing at it
type Vault struct {
	Sim    *vaultsim.Simulator
	Server *httptest.Server
	Cfg    config.Config
	Ctx    *rest.APIContext
	Cache  *auth.MemoryCache
	Call   *rest.Call
}

// WithVault is a decorator for GoConvey based tests
//
// It starts a vault simulator and injects a Vault whose Call authenticates with
// the simulator's credentials. The simulator is shut down on Reset.
func WithVault(f func(*Vault)) func() {
	return func() {
		sim := vaultsim.NewSimulator(ClientID, ClientSecret)
		srv := httptest.NewServer(sim)

		cfg := config.DefaultConfig()
		cfg.Endpoint = srv.URL
		cfg.Credentials.ClientID = ClientID
		cfg.Credentials.ClientSecret = ClientSecret
		cfg.HTTP.Timeout = "5s"
		cfg.HTTP.Retry = 2
		So(cfg.Validate(), ShouldBeEmpty)

		v := &Vault{
			Sim:    sim,
			Server: srv,
			Cfg:    cfg,
			Ctx:    rest.APIContextFromConfig(cfg),
			Cache:  auth.NewMemoryCache(),
		}
		v.Call = rest.NewCall(v.Ctx,
			rest.WithHTTPClient(srv.Client()),
			rest.WithTokenCache(v.Cache),
			rest.WithBackoff(time.Millisecond),
		)

		Reset(func() {
			srv.Close()
		})

		f(v)
	}
}
