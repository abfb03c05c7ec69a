// Package ble drives the model's PWM LED peripheral over Bluetooth Low
// Energy. It owns connection management (scan, connect, heartbeat,
// reconnect) and a rate-limited frame writer, and exposes the brightness
// primitive the animation core writes to.
package ble

import (
	"context"
	"log"
	"time"

	"golang.org/x/time/rate"
	"tinygo.org/x/bluetooth"
)

var (
	adapter = bluetooth.DefaultAdapter

	pwmServiceUUIDStr        = "0000ffe0-0000-1000-8000-00805f9b34fb"
	pwmCharacteristicUUIDStr = "0000ffe1-0000-1000-8000-00805f9b34fb"
)

// StatusFunc is notified on every connection status change.
type StatusFunc func(connected bool, rssi int16)

// Controller manages the BLE connection and queues brightness frames.
type Controller struct {
	characteristic bluetooth.DeviceCharacteristic
	heartbeatChar  bluetooth.DeviceCharacteristic

	// disconnectChan signals a broken connection to the serve loop.
	// Created once, buffered so signalling never blocks.
	disconnectChan chan struct{}

	frameChan chan []byte

	deviceNames        []string
	serviceUUID        bluetooth.UUID
	characteristicUUID bluetooth.UUID
	scanTimeout        time.Duration
	connectTimeout     time.Duration
	heartbeatInterval  time.Duration
	retryDelay         time.Duration
	frameLimiter       *rate.Limiter
}

// NewController creates a BLE controller and starts its frame writer.
func NewController(ctx context.Context, deviceNames []string, scanTimeout, connectTimeout, heartbeatInterval, retryDelay time.Duration, frameRateLimit float64, frameRateBurst int) *Controller {
	serviceUUID, _ := bluetooth.ParseUUID(pwmServiceUUIDStr)
	characteristicUUID, _ := bluetooth.ParseUUID(pwmCharacteristicUUIDStr)

	c := &Controller{
		deviceNames:        deviceNames,
		serviceUUID:        serviceUUID,
		characteristicUUID: characteristicUUID,
		scanTimeout:        scanTimeout,
		connectTimeout:     connectTimeout,
		heartbeatInterval:  heartbeatInterval,
		retryDelay:         retryDelay,
		frameChan:          make(chan []byte, frameRateBurst*2),
		disconnectChan:     make(chan struct{}, 1),
		frameLimiter:       rate.NewLimiter(rate.Limit(frameRateLimit), frameRateBurst),
	}

	go c.frameWriterLoop(ctx)
	return c
}

// enqueue queues a frame for the writer loop, dropping it when the queue is
// full. Dropped brightness frames are harmless: the animator re-emits on the
// next change and Resync covers reconnects.
func (c *Controller) enqueue(frame []byte) {
	select {
	case c.frameChan <- frame:
	default:
		log.Printf("[BLE] Frame queue full, dropping frame: %x", frame)
	}
}

// frameWriterLoop drains the frame queue onto the characteristic, paced by
// the rate limiter so the peripheral's radio buffer is never overrun.
func (c *Controller) frameWriterLoop(ctx context.Context) {
	log.Println("[BLE] Frame writer loop started.")
	for {
		select {
		case <-ctx.Done():
			return
		case frame := <-c.frameChan:
			if err := c.frameLimiter.Wait(ctx); err != nil {
				return
			}

			if c.characteristic.UUID() == (bluetooth.UUID{}) {
				// Not connected yet; the animators resync once we are.
				continue
			}

			if _, err := c.characteristic.WriteWithoutResponse(frame); err != nil {
				log.Printf("[BLE] Write failed (assuming disconnected): %v", err)
				c.signalDisconnect()
			}
		}
	}
}

// signalDisconnect safely sends a disconnect signal.
func (c *Controller) signalDisconnect() {
	select {
	case c.disconnectChan <- struct{}{}:
	default:
		// Signal already pending.
	}
}

// Run manages the connection for the life of the context: scan, connect,
// discover, heartbeat until the link drops, then retry.
func (c *Controller) Run(ctx context.Context, onStatusChange StatusFunc) {
	onStatusChange(false, 0)

	for {
		select {
		case <-ctx.Done():
			log.Println("[BLE] Controller shutting down.")
			return
		default:
		}

		if err := adapter.Enable(); err != nil {
			log.Printf("[BLE] Failed to enable adapter: %v", err)
			time.Sleep(c.retryDelay)
			continue
		}

		// Drain a stale disconnect signal from the previous session.
		select {
		case <-c.disconnectChan:
		default:
		}
		c.characteristic = bluetooth.DeviceCharacteristic{}
		c.heartbeatChar = bluetooth.DeviceCharacteristic{}

		result, ok := c.scan(ctx)
		if !ok {
			time.Sleep(c.retryDelay)
			continue
		}

		device, ok := c.connect(ctx, result, onStatusChange)
		if !ok {
			time.Sleep(c.retryDelay)
			continue
		}

		if !c.discover(ctx, device) {
			device.Disconnect()
			time.Sleep(c.retryDelay)
			continue
		}

		log.Println("[BLE] PWM peripheral is ready.")
		c.serve(ctx, device)

		onStatusChange(false, 0)
		c.characteristic = bluetooth.DeviceCharacteristic{}
		c.heartbeatChar = bluetooth.DeviceCharacteristic{}
		if err := device.Disconnect(); err != nil {
			log.Printf("[BLE] Disconnect warning: %v", err)
		}

		select {
		case <-ctx.Done():
			return
		default:
			time.Sleep(c.retryDelay)
		}
	}
}

// scan looks for an advertising peripheral with one of the configured names.
func (c *Controller) scan(ctx context.Context) (bluetooth.ScanResult, bool) {
	log.Println("[BLE] Scanning for lights peripheral...")
	adapter.StopScan() // force-stop a scan a previous cycle may have left running

	found := make(chan bluetooth.ScanResult, 1)
	go func() {
		err := adapter.Scan(func(adapter *bluetooth.Adapter, result bluetooth.ScanResult) {
			if contains(c.deviceNames, result.LocalName()) {
				adapter.StopScan()
				select {
				case found <- result:
				default:
				}
			}
		})
		if err != nil {
			log.Printf("[BLE] Scan error: %v", err)
		}
	}()

	scanCtx, cancel := context.WithTimeout(ctx, c.scanTimeout)
	defer cancel()
	select {
	case result := <-found:
		log.Printf("[BLE] Found device: %s (RSSI: %d)", result.LocalName(), result.RSSI)
		return result, true
	case <-scanCtx.Done():
		adapter.StopScan()
		log.Println("[BLE] Scan timed out or interrupted. Retrying...")
		return bluetooth.ScanResult{}, false
	}
}

// connect establishes the connection with a timeout wrapper around the
// adapter call, which can hang on a stuck BlueZ.
func (c *Controller) connect(ctx context.Context, result bluetooth.ScanResult, onStatusChange StatusFunc) (bluetooth.Device, bool) {
	log.Printf("[BLE] Connecting to %s...", result.Address.String())

	var device bluetooth.Device
	errChan := make(chan error, 1)
	go func() {
		d, err := adapter.Connect(result.Address, bluetooth.ConnectionParams{})
		if err == nil {
			device = d
		}
		errChan <- err
	}()

	select {
	case err := <-errChan:
		if err != nil {
			log.Printf("[BLE] Failed to connect: %v", err)
			onStatusChange(false, 0)
			return bluetooth.Device{}, false
		}
	case <-time.After(c.connectTimeout):
		log.Println("[BLE] Connection attempt timed out. Retrying...")
		adapter.StopScan()
		return bluetooth.Device{}, false
	case <-ctx.Done():
		return bluetooth.Device{}, false
	}

	log.Printf("[BLE] Connected to %s", result.LocalName())
	onStatusChange(true, result.RSSI)
	return device, true
}

// discover resolves the PWM characteristic and the optional device-name
// characteristic used as a heartbeat probe.
func (c *Controller) discover(ctx context.Context, device bluetooth.Device) bool {
	errChan := make(chan error, 1)
	go func() {
		services, err := device.DiscoverServices([]bluetooth.UUID{c.serviceUUID})
		if err != nil || len(services) == 0 {
			errChan <- err
			return
		}

		chars, err := services[0].DiscoverCharacteristics([]bluetooth.UUID{c.characteristicUUID})
		if err != nil || len(chars) == 0 {
			errChan <- err
			return
		}
		c.characteristic = chars[0]

		genericAccessUUID, _ := bluetooth.ParseUUID("00001800-0000-1000-8000-00805f9b34fb")
		deviceNameUUID, _ := bluetooth.ParseUUID("00002a00-0000-1000-8000-00805f9b34fb")
		gaServices, _ := device.DiscoverServices([]bluetooth.UUID{genericAccessUUID})
		if len(gaServices) > 0 {
			gaChars, _ := gaServices[0].DiscoverCharacteristics([]bluetooth.UUID{deviceNameUUID})
			if len(gaChars) > 0 {
				c.heartbeatChar = gaChars[0]
			}
		}
		errChan <- nil
	}()

	select {
	case err := <-errChan:
		if err != nil {
			log.Printf("[BLE] Service discovery failed: %v", err)
			return false
		}
	case <-time.After(c.connectTimeout):
		log.Println("[BLE] Service discovery timed out. Disconnecting...")
		return false
	case <-ctx.Done():
		return false
	}
	return true
}

// serve holds the connection open, probing the heartbeat characteristic
// until a disconnect is signalled or the context ends.
func (c *Controller) serve(ctx context.Context, device bluetooth.Device) {
	ticker := time.NewTicker(c.heartbeatInterval)
	defer ticker.Stop()
	buf := make([]byte, 20)

	for {
		select {
		case <-ticker.C:
			if c.heartbeatChar.UUID() != (bluetooth.UUID{}) {
				if _, err := c.heartbeatChar.Read(buf); err != nil {
					log.Printf("[BLE] Heartbeat failed: %v", err)
					c.signalDisconnect()
				}
			}
		case <-c.disconnectChan:
			log.Println("[BLE] Disconnection signal received. Resetting connection...")
			return
		case <-ctx.Done():
			log.Println("[BLE] Disconnecting due to shutdown...")
			return
		}
	}
}

// contains checks if a string is in a slice.
func contains(s []string, str string) bool {
	for _, v := range s {
		if v == str {
			return true
		}
	}
	return false
}
