// Package main - overheat-bot
// Load generator: connects scripted players to a running server and plays
// the shared session over websockets.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"os/signal"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/samwiegames/overheat/internal/autoplay"
	"github.com/samwiegames/overheat/internal/engine"
	"github.com/samwiegames/overheat/internal/network"
)

// Config for the bot swarm
type Config struct {
	ServerURL    string
	NumClients   int
	Profile      autoplay.Profile
	TestDuration time.Duration
}

// Stats tracks performance metrics
type Stats struct {
	MessagesSent     int64
	MessagesReceived int64
	Snapshots        int64
	Errors           int64
	Latencies        []time.Duration
	mu               sync.Mutex
}

func main() {
	serverURL := flag.String("url", "ws://localhost:8080/ws", "WebSocket server URL")
	numClients := flag.Int("clients", 20, "Number of concurrent clients")
	profileName := flag.String("profile", "casual", "Player profile: idle, casual or expert")
	duration := flag.Duration("duration", 60*time.Second, "Test duration")
	flag.Parse()

	profile, ok := autoplay.Profiles[*profileName]
	if !ok {
		log.Fatalf("unknown profile %q", *profileName)
	}
	config := Config{
		ServerURL:    *serverURL,
		NumClients:   *numClients,
		Profile:      profile,
		TestDuration: *duration,
	}

	fmt.Println(strings.Repeat("=", 41))
	fmt.Println("OVERHEAT BOT - load generator")
	fmt.Println(strings.Repeat("=", 41))
	fmt.Printf("Server:   %s\n", config.ServerURL)
	fmt.Printf("Clients:  %d\n", config.NumClients)
	fmt.Printf("Profile:  %s\n", config.Profile.Name)
	fmt.Printf("Duration: %v\n", config.TestDuration)

	ctx, cancel := context.WithTimeout(context.Background(), config.TestDuration)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt)
	go func() {
		<-sigChan
		fmt.Println("\nInterrupt received, stopping...")
		cancel()
	}()

	stats := runSwarm(ctx, config)
	printResults(stats, config)
}

func runSwarm(ctx context.Context, config Config) *Stats {
	stats := &Stats{Latencies: make([]time.Duration, 0, 10000)}
	var wg sync.WaitGroup

	for i := 0; i < config.NumClients; i++ {
		wg.Add(1)
		go func(clientID int) {
			defer wg.Done()
			runClient(ctx, clientID, config, stats)
		}(i)

		// Stagger client starts to avoid thundering herd
		time.Sleep(10 * time.Millisecond)
	}
	fmt.Printf("All %d clients started\n\n", config.NumClients)

	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				fmt.Printf("Progress: Sent=%d Recv=%d Snapshots=%d Errors=%d\n",
					atomic.LoadInt64(&stats.MessagesSent), atomic.LoadInt64(&stats.MessagesReceived),
					atomic.LoadInt64(&stats.Snapshots), atomic.LoadInt64(&stats.Errors))
			}
		}
	}()

	wg.Wait()
	return stats
}

func runClient(ctx context.Context, clientID int, config Config, stats *Stats) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, config.ServerURL, nil)
	if err != nil {
		log.Printf("Client %d: Connection failed: %v", clientID, err)
		atomic.AddInt64(&stats.Errors, 1)
		return
	}
	defer conn.Close()

	go func() {
		<-ctx.Done()
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
		conn.Close()
	}()

	player := autoplay.NewPlayer(config.Profile, rand.New(rand.NewSource(int64(clientID))))
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() == nil {
				atomic.AddInt64(&stats.Errors, 1)
			}
			return
		}
		atomic.AddInt64(&stats.MessagesReceived, 1)

		for _, snap := range snapshots(data) {
			atomic.AddInt64(&stats.Snapshots, 1)
			for _, in := range player.Decide(snap) {
				start := time.Now()
				if err := conn.WriteJSON(toAction(in)); err != nil {
					atomic.AddInt64(&stats.Errors, 1)
					return
				}
				atomic.AddInt64(&stats.MessagesSent, 1)
				stats.mu.Lock()
				stats.Latencies = append(stats.Latencies, time.Since(start))
				stats.mu.Unlock()
			}
		}
	}
}

// snapshots extracts every SNAPSHOT message from a JSON frame. Frames may
// batch several newline separated messages.
func snapshots(frame []byte) []engine.Snapshot {
	var out []engine.Snapshot
	for _, line := range strings.Split(string(frame), "\n") {
		var msg struct {
			Type    string          `json:"type"`
			Payload json.RawMessage `json:"payload"`
		}
		if err := json.Unmarshal([]byte(line), &msg); err != nil || msg.Type != network.MsgTypeSnapshot {
			continue
		}
		var snap engine.Snapshot
		if err := json.Unmarshal(msg.Payload, &snap); err == nil {
			out = append(out, snap)
		}
	}
	return out
}

func toAction(in engine.Input) network.PlayerAction {
	return network.PlayerAction{
		Type:    string(in.Kind),
		PopupID: int64(in.PopupID),
		Powerup: string(in.Powerup),
	}
}

func printResults(stats *Stats, config Config) {
	fmt.Println("\n" + strings.Repeat("=", 41))
	fmt.Println("LOAD TEST RESULTS")
	fmt.Println(strings.Repeat("=", 41))

	sent := atomic.LoadInt64(&stats.MessagesSent)
	recv := atomic.LoadInt64(&stats.MessagesReceived)
	errs := atomic.LoadInt64(&stats.Errors)

	fmt.Printf("Messages Sent:     %d\n", sent)
	fmt.Printf("Messages Received: %d\n", recv)
	fmt.Printf("Snapshots:         %d\n", atomic.LoadInt64(&stats.Snapshots))
	fmt.Printf("Errors:            %d\n", errs)
	fmt.Printf("Throughput:        %.2f msg/sec\n", float64(sent)/config.TestDuration.Seconds())

	if len(stats.Latencies) > 0 {
		var total time.Duration
		fastest, slowest := stats.Latencies[0], stats.Latencies[0]
		for _, l := range stats.Latencies {
			total += l
			if l < fastest {
				fastest = l
			}
			if l > slowest {
				slowest = l
			}
		}
		fmt.Printf("\nWrite latency:\n")
		fmt.Printf("  Min: %v\n", fastest)
		fmt.Printf("  Avg: %v\n", total/time.Duration(len(stats.Latencies)))
		fmt.Printf("  Max: %v\n", slowest)
	}

	fmt.Println(strings.Repeat("-", 41))
	if errs == 0 {
		fmt.Println("PASSED: server handled the load")
	} else if float64(errs)/float64(sent+1) < 0.05 {
		fmt.Println("WARNING: some errors detected")
	} else {
		fmt.Println("FAILED: high error rate")
	}
}
