package web

import "html/template"

var loginPage = template.Must(template.New("login").Parse(`<!doctype html>
<html lang="en">
<head>
  <meta charset="utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1">
  <title>Sign in · tradelogin</title>
  <style>
    :root { --bg:#0b1224; --panel:#0f172a; --accent:#38bdf8; --muted:#94a3b8; --line:rgba(255,255,255,0.1); }
    body { margin:0; font-family:"Segoe UI", sans-serif; background:var(--bg); color:#e2e8f0;
      display:flex; align-items:center; justify-content:center; min-height:100vh; padding:24px; }
    .card { background:var(--panel); border:1px solid var(--line); border-radius:18px; padding:36px 40px; max-width:480px; width:100%; }
    h1 { margin:0 0 12px; font-size:28px; color:var(--accent); }
    p { margin:8px 0; color:var(--muted); }
    form { display:grid; gap:14px; margin-top:18px; }
    label { display:block; margin-bottom:6px; font-size:13px; color:var(--muted); text-transform:uppercase; }
    input { display:block; width:100%; box-sizing:border-box; background:#0b1224; border:1px solid var(--line);
      color:#e2e8f0; border-radius:10px; padding:10px 12px; font-size:15px; }
    button { width:100%; border:0; border-radius:10px; padding:12px 14px; font-weight:600; background:var(--accent); color:#062238; cursor:pointer; }
    button:disabled { opacity:0.6; cursor:progress; }
    .error { margin-top:12px; padding:10px 12px; border-radius:10px; border:1px solid rgba(248,113,113,0.4);
      background:rgba(248,113,113,0.12); color:#fecaca; font-size:13px; }
  </style>
</head>
<body>
  <div class="card">
    <h1>Broker login</h1>
    <p>Enter your API credentials and the session key from today's broker login.</p>
    {{if .Error}}<div class="error" role="alert">{{.Error}}</div>{{end}}
    <form id="login" method="post" action="/login">
      <div>
        <label for="api_key">API Key</label>
        <input id="api_key" name="api_key" value="{{.APIKey}}" autocomplete="off" required>
      </div>
      <div>
        <label for="api_secret">API Secret</label>
        <input id="api_secret" name="api_secret" type="password" autocomplete="off" required>
      </div>
      <div>
        <label for="session_key">Session Key</label>
        <input id="session_key" name="session_key" type="password" autocomplete="off" required>
      </div>
      <button id="submit" type="submit">Login</button>
    </form>
  </div>
  <script>
    document.getElementById("login").addEventListener("submit", function () {
      var button = document.getElementById("submit");
      button.disabled = true;
      button.textContent = "Signing in...";
    });
  </script>
</body>
</html>
`))

var homePage = template.Must(template.New("home").Parse(`<!doctype html>
<html lang="en">
<head>
  <meta charset="utf-8">
  <title>tradelogin</title>
  <style>
    body { margin:0; font-family:"Segoe UI", sans-serif; background:#0b1224; color:#e2e8f0; padding:40px; }
    a { color:#38bdf8; }
    .notice { color:#fecaca; }
  </style>
</head>
<body>
  <h1>Welcome{{if .FirstName}}, {{.FirstName}}{{end}}</h1>
  {{if .Notice}}<p class="notice">{{.Notice}}</p>{{end}}
  {{if .UserID}}<p>Signed in as {{.UserID}}</p>{{end}}
  <p><a href="/logout">Logout</a></p>
</body>
</html>
`))

type loginView struct {
	Error  string
	APIKey string
}

type homeView struct {
	FirstName string
	UserID    string
	Notice    string
}
