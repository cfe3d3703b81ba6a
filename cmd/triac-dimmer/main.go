// Command triac-dimmer drives a four-channel AC triac dimmer with
// zero-cross synchronized phase control, arbitrating among a persisted
// static value, a time-scheduled plan received over MQTT, and a
// low-latency UDP push channel.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sweeney/triac-dimmer/internal/config"
	"github.com/sweeney/triac-dimmer/internal/dimmer"
	"github.com/sweeney/triac-dimmer/internal/fastudp"
	"github.com/sweeney/triac-dimmer/internal/gpio"
	"github.com/sweeney/triac-dimmer/internal/logger"
	"github.com/sweeney/triac-dimmer/internal/mode"
	"github.com/sweeney/triac-dimmer/internal/mqtt"
	"github.com/sweeney/triac-dimmer/internal/schedule"
	"github.com/sweeney/triac-dimmer/internal/status"
	"github.com/sweeney/triac-dimmer/internal/store"
	"github.com/sweeney/triac-dimmer/internal/web"
)

const firmwareVersion = "2.3.1"

func main() {
	configPath := flag.String("config", "", "path to config file (default configs/config.yml)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Get(logger.InfoLevel).Fatalw("error reading config", "err", err)
	}

	log := logger.Get(cfg.LogLevel)
	if err := run(cfg, log); err != nil {
		log.Fatalw("fatal", "err", err)
	}
}

func run(cfg config.Config, log *logger.Logger) error {
	ctx := context.Background()

	db, err := store.InitDB(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("init sqlite: %w", err)
	}
	defer db.Close()
	st := store.New(db)

	bank, err := gpio.NewRealBank(cfg.GPIO.Chip, cfg.GPIO.ChannelPins)
	if err != nil {
		return fmt.Errorf("init gpio: %w", err)
	}
	defer bank.Close()

	engine := dimmer.NewEngine(bank, nil, dimmer.Config{})

	edges, err := gpio.NewRealEdgeSource(cfg.GPIO.Chip, cfg.GPIO.ZeroCrossPin, engine.HandleZeroCross)
	if err != nil {
		return fmt.Errorf("init zero-cross input: %w", err)
	}
	defer edges.Close()

	queue := schedule.NewQueue(schedule.DefaultCapacity)
	arbiter := mode.NewArbiter(engine, cfg.UDP.FastTimeout.Milliseconds())

	// Restore the persisted static frame so the lights come back where
	// they were left.
	if values, ok, err := st.LoadStaticFrame(ctx); err != nil {
		log.Warnw("load static frame failed", "err", err)
	} else if ok {
		arbiter.SetStatic(values, time.Now().UnixMilli())
		log.Infow("restored static frame", "values", values)
	}

	ctl := &controls{arbiter: arbiter, queue: queue, store: st, log: log}

	broker, err := mqtt.NewRealClient(mqtt.Config{
		Broker:    cfg.MQTT.Broker,
		BaseTopic: cfg.MQTT.BaseTopic,
		DeviceID:  cfg.MQTT.DeviceID,
		Firmware:  firmwareVersion,
	}, mqtt.Handlers{
		Static: ctl.SetStatic,
		Plan:   ctl.ApplyPlan,
	}, log)
	if err != nil {
		return fmt.Errorf("init mqtt: %w", err)
	}
	defer broker.Close()

	udp, err := fastudp.Listen(cfg.UDP.Port, func(f dimmer.Frame) {
		arbiter.SetFast(f[:], time.Now().UnixMilli())
	}, log)
	if err != nil {
		return fmt.Errorf("init udp: %w", err)
	}
	defer udp.Close()

	tracker := status.NewTracker(time.Now(), status.Config{
		TickMS:        cfg.TickInterval.Milliseconds(),
		FastTimeoutMS: cfg.UDP.FastTimeout.Milliseconds(),
		HeartbeatMS:   cfg.MQTT.HeartbeatInterval.Milliseconds(),
		Broker:        cfg.MQTT.Broker,
		BaseTopic:     cfg.MQTT.BaseTopic,
		HTTPAddr:      cfg.HTTPAddr,
		UDPPort:       cfg.UDP.Port,
	})

	if cfg.HTTPAddr != "" {
		handler := web.NewHandler(tracker, ctl, st, log)
		srv := web.NewServer(cfg.HTTPAddr, handler.InitRoutes())
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Errorw("http server error", "err", err)
			}
		}()
		defer srv.Shutdown(context.Background())
		log.Infow("http status server listening", "addr", cfg.HTTPAddr)
	}

	if err := st.AppendEvent(ctx, store.EventStartup, ""); err != nil {
		log.Warnw("append startup event failed", "err", err)
	}

	log.Infow("started",
		"tick", cfg.TickInterval,
		"broker", cfg.MQTT.Broker,
		"udp_port", cfg.UDP.Port,
		"fast_timeout", cfg.UDP.FastTimeout)

	ticker := time.NewTicker(cfg.TickInterval)
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	deps := loopDeps{
		engine:    engine,
		arbiter:   arbiter,
		queue:     queue,
		tracker:   tracker,
		broker:    broker,
		store:     st,
		heartbeat: cfg.MQTT.HeartbeatInterval,
		nowMS:     func() int64 { return time.Now().UnixMilli() },
		counters: func() status.Counters {
			return status.Counters{
				FastPackets:     udp.PacketCount(),
				PlanSteps:       ctl.PlanSteps(),
				SignalLosses:    engine.LossCount(),
				DroppedMessages: broker.Dropped(),
			}
		},
		log: log,
	}
	return runLoop(deps, ticker.C, sigCh)
}

// loopDeps carries everything the driver loop touches, so tests can wire
// fakes and a manual tick channel.
type loopDeps struct {
	engine    *dimmer.Engine
	arbiter   *mode.Arbiter
	queue     *schedule.Queue
	tracker   *status.Tracker
	broker    mqtt.Broker
	store     *store.Store // nil disables the event log
	heartbeat time.Duration
	nowMS     func() int64
	counters  func() status.Counters
	log       *logger.Logger
}

// runLoop is the foreground driver tick. Each tick refreshes the planned
// frame from the schedule queue, runs the arbiter's staleness check, then
// the engine's safety watchdog, in that order; all three are non-blocking.
func runLoop(d loopDeps, tick <-chan time.Time, sig <-chan os.Signal) error {
	startMS := d.nowMS()
	lastHeartbeatMS := startMS
	lastHealthy := d.engine.ZeroCrossHealthy()

	for {
		select {
		case s := <-sig:
			d.log.Infow("received signal, shutting down", "signal", s.String())
			d.appendEvent(store.EventShutdown, s.String())
			d.engine.ForceOff()
			return nil

		case <-tick:
			now := d.nowMS()

			if d.arbiter.Mode() == mode.Planned && d.queue.HasValidSchedule() {
				if frame, ok := d.queue.CurrentFrame(now); ok {
					d.arbiter.SetPlanned(frame[:], now)
				}
			}
			d.arbiter.Update(now)
			d.engine.Update()

			healthy := d.engine.ZeroCrossHealthy()
			if healthy != lastHealthy {
				lastHealthy = healthy
				if healthy {
					d.log.Infow("zero-cross signal recovered")
					d.appendEvent(store.EventSignalRecovered, "")
				} else {
					d.log.Warnw("zero-cross signal lost, outputs forced off")
					d.appendEvent(store.EventSignalLost, "")
				}
			}

			if d.heartbeat > 0 && now-lastHeartbeatMS >= d.heartbeat.Milliseconds() {
				lastHeartbeatMS = now
				uptimeSec := (now - startMS) / 1000
				if err := d.broker.PublishHeartbeat(string(d.arbiter.Mode()), uptimeSec); err != nil {
					d.log.Warnw("heartbeat publish failed", "err", err)
				}
			}

			d.tracker.Update(string(d.arbiter.Mode()), d.arbiter.CurrentFrame(),
				d.engine.Levels(), healthy, d.counters())
			d.tracker.SetMQTTConnected(d.broker.IsConnected())
		}
	}
}

func (d loopDeps) appendEvent(evtType, detail string) {
	if d.store == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := d.store.AppendEvent(ctx, evtType, detail); err != nil {
		d.log.Warnw("append event failed", "type", evtType, "err", err)
	}
}
