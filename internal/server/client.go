package server

// Routes served next to the build tree.
const (
	routePrefix  = "/__assetforge/"
	routeWS      = routePrefix + "ws"
	routeHealth  = routePrefix + "health"
	routeMetrics = routePrefix + "metrics"
	routeErrors  = routePrefix + "errors"
)

// reloadScript is injected into every served HTML page.
const reloadScript = `<script>
(function () {
  var overlayId = "__assetforge_overlay";

  function showError(title, message) {
    var el = document.getElementById(overlayId);
    if (!el) {
      el = document.createElement("div");
      el.id = overlayId;
      el.style.cssText = "position:fixed;inset:0;z-index:2147483647;overflow:auto;" +
        "background:rgba(20,20,20,.92);color:#ff8080;padding:24px;font:13px/1.5 monospace;";
      document.body.appendChild(el);
    }
    el.innerHTML = "";
    var h = document.createElement("h2");
    h.style.color = "#fff";
    h.textContent = title;
    var pre = document.createElement("pre");
    pre.style.whiteSpace = "pre-wrap";
    pre.textContent = message;
    el.appendChild(h);
    el.appendChild(pre);
  }

  function clearError() {
    var el = document.getElementById(overlayId);
    if (el) el.parentNode.removeChild(el);
  }

  function updateCSS(path) {
    var links = document.querySelectorAll('link[rel="stylesheet"]');
    var found = false;
    for (var i = 0; i < links.length; i++) {
      var url = new URL(links[i].href, location.href);
      if (url.pathname === path) {
        url.searchParams.set("v", Date.now());
        links[i].href = url.toString();
        found = true;
      }
    }
    if (!found) location.reload();
  }

  function connect() {
    var proto = location.protocol === "https:" ? "wss:" : "ws:";
    var ws = new WebSocket(proto + "//" + location.host + "/__assetforge/ws");
    ws.onmessage = function (event) {
      var msg = JSON.parse(event.data);
      switch (msg.type) {
        case "full_reload": location.reload(); break;
        case "css_update": updateCSS(msg.path); break;
        case "build_error": showError(msg.title, msg.message); break;
        case "build_ok": clearError(); break;
      }
    };
    ws.onclose = function () { setTimeout(connect, 1000); };
  }

  connect();
})();
</script>
`
