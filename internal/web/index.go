package web

// indexHTML is the page served at /. It renders the frame stream the
// same way the native surfaces do: black canvas, purple bars.
const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>specviz</title>
<style>
  body { margin: 0; background: #111; color: #ddd; font-family: monospace; display: flex; flex-direction: column; align-items: center; }
  h1 { font-size: 14px; font-weight: normal; }
  canvas { background: #000; }
  #status { font-size: 12px; color: #888; margin: 8px; }
</style>
</head>
<body>
<h1>specviz</h1>
<canvas id="spectrum" width="800" height="400"></canvas>
<div id="status">connecting...</div>
<script>
const canvas = document.getElementById("spectrum");
const ctx = canvas.getContext("2d");
const status = document.getElementById("status");
const ws = new WebSocket("ws://" + location.host + "/ws");
ws.onopen = () => { status.textContent = "connected"; };
ws.onclose = () => { status.textContent = "disconnected"; };
ws.onmessage = (ev) => {
  const msg = JSON.parse(ev.data);
  if (msg.type === "layout") {
    canvas.width = msg.width;
    canvas.height = msg.height;
    return;
  }
  if (msg.type !== "frame") return;
  ctx.fillStyle = "#000";
  ctx.fillRect(0, 0, canvas.width, canvas.height);
  ctx.fillStyle = "#800080";
  for (const [x0, y0, x1, y1] of msg.bars) {
    ctx.fillRect(x0, y0, x1 - x0, y1 - y0);
  }
};
</script>
</body>
</html>
`
