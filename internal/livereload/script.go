package livereload

import (
	"os"
	"path/filepath"
)

// ScriptFile is the client script name at the destination root.
const ScriptFile = "__livereload.js"

// ScriptTag is the snippet injected before a document's closing body tag.
const ScriptTag = `<script src="/` + ScriptFile + `"></script>`

// HistoryParam marks a frame navigation as a history replay so the frame
// suppresses the duplicate location post to its containing tracker.
const HistoryParam = "__livereload"

// Script is the client side of the protocol. State transitions:
// Idle -> Building on start, back to Idle (or Idle-with-error) on notify,
// Reloaded on reload. The client closes its own connection before reloading;
// it reconnects on the fresh page load.
const Script = `(() => {
  if (window.__SITEBUILDER_LR__) return;
  window.__SITEBUILDER_LR__ = true;

  let state = 'idle';

  // Embedded preview frames report their location upward after each load so
  // a containing back/forward tracker can record it. A navigation flagged as
  // a history replay is not reported again.
  const params = new URLSearchParams(window.location.search);
  const replay = params.get('` + HistoryParam + `') === 'history';
  if (!replay && window.parent !== window) {
    window.parent.postMessage({ type: 'location', href: window.location.href }, '*');
  }

  function connect() {
    const es = new EventSource('` + Endpoint + `');
    es.onmessage = (e) => {
      let ev;
      try { ev = JSON.parse(e.data); } catch (_) { return; }
      switch (ev.type) {
        case 'start':
          state = 'building';
          console.log('[sitebuilder] building...');
          break;
        case 'notify':
          state = ev.error ? 'idle-error' : 'idle';
          if (ev.error) { console.error('[sitebuilder] ' + ev.message); }
          else { console.log('[sitebuilder] ' + ev.message); }
          break;
        case 'reload':
          state = 'reloaded';
          es.close();
          if (ev.href) { window.location.href = ev.href; }
          else { window.location.reload(); }
          break;
      }
    };
    es.onerror = () => {
      es.close();
      setTimeout(connect, 2000);
    };
  }
  connect();
})();
`

// WriteScript writes the client script to the destination root.
func WriteScript(destRoot string) error {
	return os.WriteFile(filepath.Join(destRoot, ScriptFile), []byte(Script), 0o644)
}
