package web

import (
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/sweeney/mash-controller/internal/status"
)

var indexTmpl = template.Must(template.New("index").Funcs(template.FuncMap{
	"uptime":  formatUptime,
	"seconds": func(d time.Duration) int64 { return int64(d / time.Second) },
	"onOff": func(b bool) string {
		if b {
			return "ON"
		}
		return "OFF"
	},
}).Parse(indexHTML))

// formatUptime renders d as "3d 4h 5m 6s", dropping leading zero units.
func formatUptime(d time.Duration) string {
	total := int64(d / time.Second)
	parts := []struct {
		n    int64
		unit string
	}{
		{total / 86400, "d"},
		{total / 3600 % 24, "h"},
		{total / 60 % 60, "m"},
	}
	out := ""
	for _, p := range parts {
		if p.n > 0 || out != "" {
			out += fmt.Sprintf("%d%s ", p.n, p.unit)
		}
	}
	return out + fmt.Sprintf("%ds", total%60)
}

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Mash Controller</title>
<style>
body { font-family: ui-monospace, monospace; background: #fafaf7; color: #222; max-width: 640px; margin: 1.5em auto; padding: 0 1em; }
h1 { font-size: 1.3em; margin-bottom: 0.4em; }
h2 { font-size: 1em; text-transform: uppercase; letter-spacing: 0.05em; color: #665; margin: 1.4em 0 0.3em; }
table { border-collapse: collapse; width: 100%; }
th, td { text-align: left; padding: 3px 6px; border-bottom: 1px dotted #ccb; }
th { width: 45%; font-weight: normal; color: #554; }
pre#screen { background: #1b1d12; color: #c8e67a; padding: 0.8em 1em; min-height: 6.5em; border-radius: 4px; font-size: 1.1em; }
.on { color: #c43; font-weight: bold; }
.off { color: #998; }
.up { color: #383; }
.down { color: #c33; }
#feed { font-size: 0.7em; vertical-align: middle; margin-left: 0.5em; }
#feed.live { color: #383; }
#feed.lost { color: #c33; }
#feed.wait { color: #c90; }
</style>
</head>
<body>
<h1>Mash Controller<span id="feed" class="wait">&#9679; connecting</span></h1>

<pre id="screen">{{range .Display}}{{.}}
{{end}}</pre>

<h2>Process</h2>
<table>
<tr><th>State</th><td id="state">{{.State}}</td></tr>
<tr><th>Stage</th><td id="stage">{{.Stage.Name}} ({{.Stage.TempMin}}-{{.Stage.TempMax}}°C, {{seconds .Stage.Duration}}s)</td></tr>
<tr><th>Temperature</th><td id="temperature">{{printf "%.1f" .Context.Temperature}}°C</td></tr>
<tr><th>Flame</th><td id="flame" class="{{if .Context.FlameActive}}on{{else}}off{{end}}">{{onOff .Context.FlameActive}}</td></tr>
<tr><th>Stage time</th><td id="stage-time">{{seconds .Context.StageElapsed}}s</td></tr>
<tr><th>Total time</th><td id="total-time">{{seconds .Context.TotalElapsed}}s</td></tr>
<tr><th>Completion lamp</th><td id="lamp">{{onOff .Lamp}}</td></tr>
<tr><th>Last event</th><td id="last-event">{{if .LastEvent}}{{.LastEvent.Type}}{{else}}-{{end}}</td></tr>
</table>

<h2>Recipe</h2>
<table>
{{range $i, $s := .Recipe}}<tr><th>{{$i}}. {{$s.Name}}</th><td>{{$s.TempMin}}-{{$s.TempMax}}°C, {{seconds $s.Duration}}s</td></tr>
{{end}}</table>

<h2>Connectivity</h2>
<table>
{{if .MQTTConnected}}<tr><th>MQTT</th><td class="up">connected</td></tr>{{else}}<tr><th>MQTT</th><td class="down">disconnected</td></tr>{{end}}
<tr><th>Broker</th><td>{{.Config.Broker}}</td></tr>
</table>

<h2>Event Counts</h2>
<table>
<tr><th>Processes started</th><td>{{.Counts.ProcessStarted}}</td></tr>
<tr><th>Stages finished</th><td>{{.Counts.StageFinished}}</td></tr>
<tr><th>Processes complete</th><td>{{.Counts.ProcessComplete}}</td></tr>
<tr><th>Aborted</th><td>{{.Counts.ProcessAborted}}</td></tr>
<tr><th>Resets</th><td>{{.Counts.Reset}}</td></tr>
</table>

<h2>System</h2>
<table>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
<tr><th>Started</th><td>{{.Started}}</td></tr>
<tr><th>Joystick centre</th><td>{{.Center}}</td></tr>
<tr><th>Tick</th><td>{{.Config.TickMs}}ms (timing {{.Config.TimingTickMs}}ms)</td></tr>
<tr><th>Debounce</th><td>{{.Config.DebounceMs}}ms</td></tr>
<tr><th>Control</th><td>{{.Config.Heater}}, {{.Config.Reignite}}, {{.Config.Bounds}}, {{.Config.StageEntry}}</td></tr>
<tr><th>Heartbeat</th><td>{{with .Config.HeartbeatMs}}{{.}}ms{{else}}off{{end}}</td></tr>
<tr><th>HTTP</th><td>{{.Config.HTTPAddr}}</td></tr>
</table>

<p><a href="/index.json">index.json</a></p>
<script>
(function() {
  var feed = document.getElementById("feed");
  function setFeed(cls, text) {
    feed.className = cls;
    feed.textContent = "\u25CF " + text;
  }
  function set(id, text) {
    document.getElementById(id).textContent = text;
  }

  function connect() {
    var proto = location.protocol === "https:" ? "wss://" : "ws://";
    var ws = new WebSocket(proto + location.host + "/ws");
    ws.onopen = function() { setFeed("live", "live"); };
    ws.onclose = function() {
      setFeed("lost", "offline");
      setTimeout(connect, 5000);
    };
    ws.onmessage = function(ev) {
      try {
        var s = JSON.parse(ev.data).status;
        set("screen", s.display.join("\n"));
        set("state", s.state);
        set("stage", s.stage.name + " (" + s.stage.temp_min + "-" + s.stage.temp_max + "°C, " + s.stage.duration_seconds + "s)");
        set("temperature", s.temperature.toFixed(1) + "°C");
        set("flame", s.flame.active ? "ON" : "OFF");
        document.getElementById("flame").className = s.flame.active ? "on" : "off";
        set("stage-time", Math.floor(s.timer.stage_elapsed_seconds) + "s");
        set("total-time", Math.floor(s.timer.total_elapsed_seconds) + "s");
        set("lamp", s.lamp ? "ON" : "OFF");
        set("last-event", s.last_event || "-");
      } catch (e) {}
    };
  }
  connect();
})();
</script>
</body>
</html>
`

type page struct {
	status.Snapshot
	Uptime  time.Duration
	Started string
}

func renderHTML(w io.Writer, snap status.Snapshot) error {
	return indexTmpl.Execute(w, page{
		Snapshot: snap,
		Uptime:   snap.Uptime(),
		Started:  snap.StartTime.UTC().Format(time.RFC3339),
	})
}
