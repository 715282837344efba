package auth

// baseCSS contains the styles shared by both pages.
const baseCSS = `
        :root {
            --bg-deep: #06060a;
            --bg-card: #0d0d14;
            --bg-input: #12121a;
            --border: #1a1a2e;
            --text: #e4e4eb;
            --text-muted: #6b6b7a;
            --accent: #1f93ff;
            --accent-hover: #3da3ff;
            --error: #ef4444;
            --success: #22c55e;
        }

        * {
            margin: 0;
            padding: 0;
            box-sizing: border-box;
        }

        body {
            font-family: -apple-system, 'Segoe UI', sans-serif;
            background: var(--bg-deep);
            color: var(--text);
            min-height: 100vh;
            display: flex;
            align-items: center;
            justify-content: center;
            padding: 2rem;
        }

        .card {
            background: var(--bg-card);
            border: 1px solid var(--border);
            border-radius: 12px;
            padding: 2.5rem;
            width: 100%;
            max-width: 420px;
        }

        h1 {
            font-size: 1.375rem;
            margin-bottom: 0.5rem;
        }

        .subtitle {
            color: var(--text-muted);
            font-size: 0.875rem;
            margin-bottom: 2rem;
        }

        label {
            display: block;
            font-size: 0.8125rem;
            color: var(--text-muted);
            margin-bottom: 0.375rem;
        }

        input {
            width: 100%;
            background: var(--bg-input);
            border: 1px solid var(--border);
            border-radius: 8px;
            color: var(--text);
            padding: 0.625rem 0.75rem;
            font-size: 0.9375rem;
            margin-bottom: 1.25rem;
        }

        input:focus {
            outline: none;
            border-color: var(--accent);
        }

        button {
            width: 100%;
            background: var(--accent);
            border: none;
            border-radius: 8px;
            color: #fff;
            padding: 0.75rem;
            font-size: 0.9375rem;
            font-weight: 600;
            cursor: pointer;
        }

        button:hover {
            background: var(--accent-hover);
        }

        button:disabled {
            opacity: 0.5;
            cursor: default;
        }

        .status {
            margin-top: 1rem;
            font-size: 0.875rem;
            min-height: 1.25rem;
        }

        .status.error { color: var(--error); }
        .status.ok { color: var(--success); }
`

const setupTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>PassDrive CLI Login</title>
    <style>` + baseCSS + `</style>
</head>
<body>
    <div class="card">
        <h1>PassDrive CLI</h1>
        <p class="subtitle">Sign in to connect the <code>pd</code> command line tool to your PassDrive server.</p>

        <label for="base_url">Server URL</label>
        <input id="base_url" type="url" placeholder="https://passdrive.example.com" autocomplete="url">

        <label for="identifier">Username or email</label>
        <input id="identifier" type="text" placeholder="alice" autocomplete="username">

        <label for="password">Password</label>
        <input id="password" type="password" autocomplete="current-password">

        <button id="connect">Sign in</button>
        <div id="status" class="status"></div>
    </div>

    <script>
        const csrfToken = {{.CSRFToken}};
        const statusEl = document.getElementById('status');
        const button = document.getElementById('connect');

        function payload() {
            return {
                base_url: document.getElementById('base_url').value.trim(),
                identifier: document.getElementById('identifier').value.trim(),
                password: document.getElementById('password').value
            };
        }

        async function call(path) {
            const resp = await fetch(path, {
                method: 'POST',
                headers: {
                    'Content-Type': 'application/json',
                    'X-CSRF-Token': csrfToken
                },
                body: JSON.stringify(payload())
            });
            return resp.json();
        }

        button.addEventListener('click', async () => {
            button.disabled = true;
            statusEl.className = 'status';
            statusEl.textContent = 'Connecting...';
            try {
                const validated = await call('/validate');
                if (!validated.success) {
                    statusEl.className = 'status error';
                    statusEl.textContent = validated.error;
                    return;
                }
                const saved = await call('/submit');
                if (!saved.success) {
                    statusEl.className = 'status error';
                    statusEl.textContent = saved.error;
                    return;
                }
                statusEl.className = 'status ok';
                statusEl.textContent = 'Signed in!';
                const params = new URLSearchParams({
                    name: saved.user_name || '',
                    email: saved.user_email || ''
                });
                window.location.href = '/success?' + params.toString();
            } catch (err) {
                statusEl.className = 'status error';
                statusEl.textContent = 'Request failed: ' + err;
            } finally {
                button.disabled = false;
            }
        });
    </script>
</body>
</html>
`

const successTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>PassDrive CLI Connected</title>
    <style>` + baseCSS + `</style>
</head>
<body>
    <div class="card">
        <h1>You're connected</h1>
        <p class="subtitle">
            Signed in as <strong>{{.UserName}}</strong>{{if .UserEmail}} ({{.UserEmail}}){{end}}.
            You can close this tab and return to your terminal.
        </p>
        <div id="status" class="status"></div>
    </div>

    <script>
        fetch('/complete', { method: 'GET' }).catch(() => {});
    </script>
</body>
</html>
`
