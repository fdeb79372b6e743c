package web

import (
	"html/template"

	"github.com/relabs-tech/envmon/internal/env"
	"github.com/relabs-tech/envmon/internal/monitor"
	"github.com/relabs-tech/envmon/internal/thresholds"
)

type pageData struct {
	Refresh    int
	State      monitor.State
	Thresholds thresholds.Set
	Inverted   []thresholds.Metric
	History    []env.LogEntry
}

var funcs = template.FuncMap{
	"f2": func(v float64) string { return formatFloat(v) },
}

var pageTmpl = template.Must(template.New("index").Funcs(funcs).Parse(`<!DOCTYPE html>
<html>
<head>
  <title>ENVMON ROOM SENSOR</title>
  {{- if gt .Refresh 0}}
  <meta http-equiv="refresh" content="{{.Refresh}}">
  {{- end}}
  <style>
    table { margin-left: auto; margin-right: auto; width: 40%; border-collapse: collapse; }
    td { border: 1px solid black; padding: 10px; }
    h2 { font-family: Arial; text-align: center; }
    .center-container { text-align: center; }
    .ok { color: #fff; background: #2e7d32; padding: 4px 12px; }
    .alert { color: #fff; background: #c62828; padding: 4px 12px; }
    .warn { color: #c62828; font-family: Arial; }
  </style>
</head>
<body>
  <h2>Current Sensor Values</h2>
  <div class="center-container">
  {{- if .State.HaveReading}}
    <span class="{{if .State.Status.IsAlert}}alert{{else}}ok{{end}}">{{.State.Status}}</span>
  {{- else}}
    <span>Waiting for first reading...</span>
  {{- end}}
  {{- if .State.LastError}}
    <p class="warn">Last sensor read failed ({{.State.ConsecutiveFailures}} in a row): {{.State.LastError}}</p>
  {{- end}}
  </div>
  <table>
    <tr><td>Temperature</td><td>{{f2 .State.Reading.Temperature}} &deg;C</td></tr>
    <tr><td>Humidity</td><td>{{f2 .State.Reading.Humidity}} %</td></tr>
    <tr><td>Pressure</td><td>{{f2 .State.Reading.Pressure}} hPa</td></tr>
  </table>

  <h2>Set Thresholds</h2>
  {{- range .Inverted}}
  <p class="warn center-container">Warning: {{.}} low bound is above its high bound; every reading will alert.</p>
  {{- end}}
  <form action="/setThresholds" method="GET">
  <div class="center-container">
    Temperature Low: <input type="number" step="0.1" name="tLow" value="{{f2 .Thresholds.TempLow}}"><br><br>
    Temperature High: <input type="number" step="0.1" name="tHigh" value="{{f2 .Thresholds.TempHigh}}"><br><br>
    Humidity Low: <input type="number" step="0.1" name="hLow" value="{{f2 .Thresholds.HumidLow}}"><br><br>
    Humidity High: <input type="number" step="0.1" name="hHigh" value="{{f2 .Thresholds.HumidHigh}}"><br><br>
    Pressure Low: <input type="number" step="0.1" name="pLow" value="{{f2 .Thresholds.PressLow}}"><br><br>
    Pressure High: <input type="number" step="0.1" name="pHigh" value="{{f2 .Thresholds.PressHigh}}"><br><br>
    <input type="submit" value="Update Thresholds">
  </div>
  </form>

  <h2>Data Log (Last {{len .History}} Records)</h2>
  <table>
    <tr><td>Time (s)</td><td>Temp</td><td>Humidity</td><td>Pressure</td></tr>
    {{- range .History}}
    <tr><td>{{.Timestamp}}</td><td>{{f2 .Reading.Temperature}}</td><td>{{f2 .Reading.Humidity}}</td><td>{{f2 .Reading.Pressure}}</td></tr>
    {{- end}}
  </table>
</body>
</html>
`))
