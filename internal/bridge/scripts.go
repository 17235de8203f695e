package bridge

import "fmt"

// invokeShim defines window.<ns>.invoke/on/once wired to __invoke/__event.
func invokeShim(namespace string) string {
	return fmt.Sprintf(`(function() {
  const ns = window.%[1]s = window.%[1]s || {};
  const listeners = new Map();

  ns.invoke = function(name, args) {
    return new Promise(function(resolve, reject) {
      const envelope = JSON.stringify({cmd: name, args: args || {}});
      window.__invoke(envelope).then(function(raw) {
        try { resolve(JSON.parse(raw)); } catch (e) { resolve(raw); }
      }).catch(function(raw) {
        try { reject(JSON.parse(raw)); } catch (e) { reject(raw); }
      });
    });
  };

  ns.on = function(event, handler) {
    if (!listeners.has(event)) listeners.set(event, new Set());
    listeners.get(event).add(handler);
    return function unsubscribe() {
      const set = listeners.get(event);
      if (set) set.delete(handler);
    };
  };

  ns.once = function(event, handler) {
    const unsubscribe = ns.on(event, function(payload) {
      unsubscribe();
      handler(payload);
    });
    return unsubscribe;
  };

  ns.__event = function(name, payload) {
    const set = listeners.get(name);
    if (!set) return;
    set.forEach(function(handler) {
      try { handler(payload); } catch (e) { /* listener errors never break delivery */ }
    });
  };
})();`, namespace)
}

// dragDropShim collects the paths of files dropped on the page and fires an
// app:file-drop event with {paths} on the frontend, which the app layer
// consumes via its own event listeners; the framework does not interpret
// file payloads itself.
func dragDropShim(namespace string) string {
	return fmt.Sprintf(`(function() {
  const ns = window.%[1]s = window.%[1]s || {};
  window.addEventListener('dragover', function(e) { e.preventDefault(); });
  window.addEventListener('drop', function(e) {
    e.preventDefault();
    const paths = Array.from(e.dataTransfer.files || []).map(function(f) { return f.path || f.name; });
    if (ns.__event) ns.__event('app:file-drop', {paths: paths});
  });
})();`, namespace)
}

// errorCaptureShim reports uncaught exceptions and unhandled promise
// rejections to the backend error handler (C10) via __report_error.
func errorCaptureShim() string {
	return `(function() {
  window.addEventListener('error', function(e) {
    window.__report_error(JSON.stringify({
      message: e.message,
      source: e.filename || '',
      line: e.lineno || 0,
      stack: e.error && e.error.stack ? e.error.stack : ''
    }));
  });
  window.addEventListener('unhandledrejection', function(e) {
    const reason = e.reason;
    window.__report_error(JSON.stringify({
      message: reason && reason.message ? reason.message : String(reason),
      source: '',
      line: 0,
      stack: reason && reason.stack ? reason.stack : ''
    }));
  });
})();`
}
