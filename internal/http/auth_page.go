package http

import (
	"io"
	"net/http"
)

const authPageHTML = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="utf-8">
  <title>Sign in</title>
</head>
<body>
  <h1>Book catalog</h1>
  <p>Sign in with your account to rate, like and bookmark books.</p>
  <p><a href="/users/login">Log in</a> or <a href="/users/register">register</a>.</p>
</body>
</html>
`

// AuthPage serves the static authentication landing page.
func AuthPage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = io.WriteString(w, authPageHTML)
}
