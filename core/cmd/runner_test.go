package cmd

import (
	"context"
	"errors"
	"testing"

	coreconfig "github.com/m3rciful/signupbot/core/config"
	coretelegram "github.com/m3rciful/signupbot/core/telegram"
)

type carrier struct{ cfg *coreconfig.Config }

func (c carrier) CoreConfig() *coreconfig.Config { return c.cfg }

type fakeApp struct {
	services []Service
	closed   bool
}

func (a *fakeApp) TelegramRunOptions() (coretelegram.RunOptions, error) {
	return coretelegram.RunOptions{}, nil
}

func (a *fakeApp) Services() []Service { return a.services }

func (a *fakeApp) Close() error {
	a.closed = true
	return nil
}

func baseOptions(app *fakeApp) Options {
	return Options{
		DefaultConfigPath: "config.yaml",
		ConfigEnvVar:      "SIGNUPBOT_TEST_CONFIG",
		LoadConfig: func(string) (ConfigCarrier, error) {
			return carrier{cfg: &coreconfig.Config{}}, nil
		},
		Bootstrap: func(context.Context, ConfigCarrier) (TelegramApp, error) {
			return app, nil
		},
		ShutdownLogger: func() error { return nil },
	}
}

func TestRunRequiresHooks(t *testing.T) {
	if err := Run(Options{}); err == nil {
		t.Fatal("expected error without LoadConfig")
	}
	if err := Run(Options{LoadConfig: func(string) (ConfigCarrier, error) { return nil, nil }}); err == nil {
		t.Fatal("expected error without Bootstrap")
	}
}

func TestRunStopsServicesWhenBotExits(t *testing.T) {
	serviceStopped := make(chan struct{})
	app := &fakeApp{services: []Service{func(ctx context.Context) error {
		<-ctx.Done()
		close(serviceStopped)
		return nil
	}}}
	opts := baseOptions(app)
	var started bool
	opts.RunTelegram = func(ctx context.Context, ro coretelegram.RunOptions) error {
		started = ro.OnStart != nil && ro.OnStop != nil
		return nil
	}

	if err := Run(opts); err != nil {
		t.Fatalf("run: %v", err)
	}
	if !started {
		t.Fatal("lifecycle hooks were not installed")
	}
	select {
	case <-serviceStopped:
	default:
		t.Fatal("service kept running after bot exit")
	}
	if !app.closed {
		t.Fatal("app was not closed")
	}
}

func TestRunPropagatesServiceFailure(t *testing.T) {
	boom := errors.New("listen failed")
	app := &fakeApp{services: []Service{func(context.Context) error { return boom }}}
	opts := baseOptions(app)
	opts.RunTelegram = func(ctx context.Context, _ coretelegram.RunOptions) error {
		<-ctx.Done()
		return nil
	}

	if err := Run(opts); !errors.Is(err, boom) {
		t.Fatalf("err = %v, want %v", err, boom)
	}
}
