// DriveGuard - in-car drowsiness monitor with a live voice companion.
// Watches the driver through a cabin camera, engages a conversational
// agent when drowsiness is detected, and escalates to an emergency
// contact when the driver becomes unresponsive.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lpernett/godotenv"

	"github.com/driveguard/driveguard/internal/config"
	"github.com/driveguard/driveguard/internal/httpc"
	"github.com/driveguard/driveguard/internal/log"
	"github.com/driveguard/driveguard/pkg/audioio"
	"github.com/driveguard/driveguard/pkg/escalation"
	"github.com/driveguard/driveguard/pkg/guardian"
	"github.com/driveguard/driveguard/pkg/session"
	"github.com/driveguard/driveguard/pkg/tools"
	"github.com/driveguard/driveguard/pkg/vision"
)

func init() {
	// A missing .env is fine; plain environment variables still apply.
	if err := godotenv.Load(); err != nil {
		fmt.Fprintln(os.Stderr, "no .env file loaded")
	}
}

func main() {
	debug := flag.Bool("debug", false, "Enable verbose debug logging")
	port := flag.String("port", "8080", "Dashboard port")
	camera := flag.String("camera", "", "Camera device (overrides CAMERA_DEVICE)")
	micDevice := flag.String("mic", "default", "ALSA capture device")
	speakerDevice := flag.String("speaker", "default", "ALSA playback device")
	flag.Parse()

	level := "info"
	if *debug {
		level = "debug"
	}
	log.Init(level)

	apiKey := config.GoogleAPIKey()
	contact := config.EmergencyContact()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Camera and landmark models.
	visionCfg := vision.DefaultConfig()
	visionCfg.Device = config.CameraDevice()
	if *camera != "" {
		visionCfg.Device = *camera
	}
	visionCfg.LandmarkModelPath = config.LandmarkModelPath()

	sampler, err := vision.NewCameraSampler(visionCfg)
	if err != nil {
		log.Error("camera unavailable", "error", fmt.Errorf("%w: %v", guardian.ErrPermission, err))
		os.Exit(1)
	}
	defer sampler.Close()

	// Shared by place search and the emergency notification.
	location := escalation.NewLocationStore()

	// Voice session tools.
	handlers := []session.Handler{}
	places, err := tools.NewPlacesFinder(ctx, apiKey, location)
	if err != nil {
		log.Error("places tool unavailable", "error", err)
		os.Exit(1)
	}
	handlers = append(handlers, places)
	if id, secret := config.SpotifyCredentials(); id != "" {
		handlers = append(handlers, tools.NewSpotifyPlayer(ctx, id, secret))
	} else {
		log.Warn("spotify credentials not set, play_spotify_song disabled")
	}

	sessionCfg := session.DefaultConfig()
	sessionCfg.APIKey = apiKey
	sessionCfg.Debug = *debug

	audio := func() (audioio.Source, audioio.Sink, error) {
		captureCfg := audioio.DefaultCaptureConfig()
		captureCfg.Device = *micDevice
		playbackCfg := audioio.DefaultPlaybackConfig()
		playbackCfg.Device = *speakerDevice
		return audioio.NewCmdSource(captureCfg, log.L()), audioio.NewCmdSink(playbackCfg, log.L()), nil
	}

	app, err := guardian.New(guardian.Config{
		Session:       sessionCfg,
		Contact:       contact,
		DashboardPort: *port,
	}, sampler, audio, newNotifier(), handlers, guardian.WithLocationStore(location))
	if err != nil {
		log.Error("configuration error", "error", err)
		os.Exit(1)
	}

	log.Info("driveguard starting", "dashboard_port", *port, "camera", visionCfg.Device)
	if err := app.Run(ctx); err != nil {
		log.Error("runtime error", "error", err)
		os.Exit(1)
	}
}

// newNotifier builds the emergency notification sink: an HTTP webhook
// when EMERGENCY_WEBHOOK is set, otherwise a loud log line so bench
// setups still surface the event.
func newNotifier() escalation.Notifier {
	webhook := config.Env("EMERGENCY_WEBHOOK", "")
	if webhook == "" {
		return escalation.NotifierFunc(func(_ context.Context, contact string, loc escalation.Location) error {
			log.Error("EMERGENCY: driver unresponsive", "contact", contact,
				"latitude", loc.Latitude, "longitude", loc.Longitude)
			return nil
		})
	}

	client := httpc.NewClient(10 * time.Second)
	return escalation.NotifierFunc(func(ctx context.Context, contact string, loc escalation.Location) error {
		payload, err := json.Marshal(map[string]any{
			"contact":   contact,
			"latitude":  loc.Latitude,
			"longitude": loc.Longitude,
			"message":   "Driver unresponsive, emergency countdown expired",
		})
		if err != nil {
			return err
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, webhook, bytes.NewReader(payload))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")
		resp, err := client.Do(req)
		if err != nil {
			return err
		}
		resp.Body.Close()
		if resp.StatusCode >= 300 {
			return fmt.Errorf("webhook returned %s", resp.Status)
		}
		return nil
	})
}
