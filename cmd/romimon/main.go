package main

//go-build: CGO_ENABLED=0

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"os"
	"strings"

	"github.com/golang/protobuf/jsonpb"

	fx "github.com/robotalks/romi.go/pkg/framework"
	"github.com/robotalks/romi.go/pkg/telemetry"
	"github.com/robotalks/romi.go/pkg/telemetry/mqtt"
)

var (
	mqttURL = "mqtt://localhost:1883/romi/"
	robot   string
	control string
)

func init() {
	if val := os.Getenv("ROMI_MQTT_URL"); val != "" {
		mqttURL = val
	}
	flag.StringVar(&mqttURL, "mqtt", mqttURL, "MQTT broker URL.")
	flag.StringVar(&robot, "robot", robot, "Monitor only TYPE/ID.")
	flag.StringVar(&control, "ctl", control, "Send TASK:ACTION to the robot and exit.")
}

func printReport(topic string, payload []byte) {
	if len(payload) > 0 && payload[0] == '{' {
		log.Printf("%s: %s", topic, string(payload))
		return
	}
	report, err := telemetry.UnmarshalReport(payload)
	if err != nil {
		log.Printf("%s: bad report: %v", topic, err)
		return
	}
	var m jsonpb.Marshaler
	text, err := m.MarshalToString(report)
	if err != nil {
		log.Printf("%s: %v", topic, err)
		return
	}
	log.Printf("%s: %s", topic, text)
}

func sendControl(c *mqtt.Client) {
	task, action, ok := strings.Cut(control, ":")
	if !ok || robot == "" {
		log.Fatalln("-ctl requires TASK:ACTION and -robot TYPE/ID")
	}
	payload, err := json.Marshal(&telemetry.ControlRequest{Task: task, Action: action})
	if err != nil {
		log.Fatalln(err)
	}
	token := c.Pub(robot+"/"+mqtt.TopicControl, payload)
	token.Wait()
	if err := token.Error(); err != nil {
		log.Fatalln(err)
	}
}

func main() {
	flag.Parse()
	log.SetFlags(log.Lmicroseconds)

	opts, prefix, err := mqtt.ClientOptionsFromURL(mqttURL)
	if err != nil {
		log.Fatalln(err)
	}
	c := mqtt.NewClient(opts, prefix)
	if token := c.Connect(); token.Wait() && token.Error() != nil {
		log.Fatalln(token.Error())
	}
	defer c.Close()

	if control != "" {
		sendControl(c)
		return
	}

	pattern := "+/+/"
	if robot != "" {
		pattern = robot + "/"
	}
	c.Sub(pattern+mqtt.TopicMeta, func(topic string, payload []byte) {
		if len(payload) == 0 {
			log.Printf("%s: offline", topic)
			return
		}
		log.Printf("%s: %s", topic, string(payload))
	})
	c.Sub(pattern+mqtt.TopicProfile, printReport)
	c.Sub(pattern+mqtt.TopicChannels, printReport)

	fx.NewRunner().HandleSignals().Go(fx.RunFunc(func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})).Wait()
}
