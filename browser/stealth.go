package browser

// stealthPatchJS is the DOM-patching init script. It is JavaScript text
// because it runs inside the browser, parameterised by the profile:
// %s platform, %d hardwareConcurrency, %d deviceMemory, %s languages JSON,
// %s webgl vendor, %s webgl renderer.
//
// Every patch is wrapped so a non-configurable property never throws, and
// re-running the script is a no-op.
const stealthPatchJS = `(() => {
  if (window.__fingerprintPatched) return;
  try { window.__fingerprintPatched = true; } catch (e) {}

  const platform = "%s";
  const hardwareConcurrency = %d;
  const deviceMemory = %d;
  const languages = %s;
  const webglVendor = "%s";
  const webglRenderer = "%s";

  const define = (obj, name, getter) => {
    try {
      Object.defineProperty(obj, name, { get: getter, configurable: true });
    } catch (e) { /* already non-configurable */ }
  };

  define(navigator, 'webdriver', () => undefined);
  define(navigator, 'platform', () => platform);
  define(navigator, 'hardwareConcurrency', () => hardwareConcurrency);
  define(navigator, 'deviceMemory', () => deviceMemory);
  define(navigator, 'languages', () => languages.slice());
  define(navigator, 'language', () => languages[0]);

  const makeChrome = () => ({
    app: { isInstalled: false, InstallState: { DISABLED: 'disabled', INSTALLED: 'installed', NOT_INSTALLED: 'not_installed' }, RunningState: { CANNOT_RUN: 'cannot_run', READY_TO_RUN: 'ready_to_run', RUNNING: 'running' } },
    csi: function () { return { onloadT: Date.now(), startE: Date.now(), pageT: Math.random() * 1000, tran: 15 }; },
    loadTimes: function () { return { requestTime: Date.now() / 1000, startLoadTime: Date.now() / 1000, commitLoadTime: Date.now() / 1000, finishDocumentLoadTime: 0, finishLoadTime: 0, firstPaintTime: 0, firstPaintAfterLoadTime: 0, navigationType: 'Other', wasFetchedViaSpdy: true, wasNpnNegotiated: true, npnNegotiatedProtocol: 'h2', wasAlternateProtocolAvailable: false, connectionInfo: 'h2' }; },
    runtime: {}
  });
  if (!window.chrome) {
    try { window.chrome = makeChrome(); } catch (e) {}
  }

  const fakePlugin = (name, filename, description) => {
    const p = Object.create(Plugin.prototype);
    try {
      Object.defineProperties(p, {
        name: { value: name, enumerable: true },
        filename: { value: filename, enumerable: true },
        description: { value: description, enumerable: true },
        length: { value: 1, enumerable: true },
      });
    } catch (e) {}
    return p;
  };
  const makeArrayLike = (items, proto) => {
    const arr = Object.create(proto);
    try {
      items.forEach((item, i) => { Object.defineProperty(arr, i, { value: item, enumerable: true }); });
      Object.defineProperty(arr, 'length', { value: items.length });
      Object.defineProperty(arr, 'item', { value: (i) => items[i] || null });
      Object.defineProperty(arr, 'namedItem', { value: (n) => items.find(x => x.name === n) || null });
      arr[Symbol.iterator] = function* () { yield* items; };
    } catch (e) {}
    return arr;
  };
  try {
    const plugins = [
      fakePlugin('PDF Viewer', 'internal-pdf-viewer', 'Portable Document Format'),
      fakePlugin('Chrome PDF Viewer', 'internal-pdf-viewer', 'Portable Document Format'),
      fakePlugin('Chromium PDF Viewer', 'internal-pdf-viewer', 'Portable Document Format'),
    ];
    define(navigator, 'plugins', () => makeArrayLike(plugins, PluginArray.prototype));
    const mimes = [
      { type: 'application/pdf', suffixes: 'pdf', description: 'Portable Document Format' },
      { type: 'text/pdf', suffixes: 'pdf', description: 'Portable Document Format' },
    ];
    define(navigator, 'mimeTypes', () => makeArrayLike(mimes, MimeTypeArray.prototype));
  } catch (e) {}

  try {
    const getParameter = WebGLRenderingContext.prototype.getParameter;
    WebGLRenderingContext.prototype.getParameter = function (param) {
      if (param === 37445) return webglVendor;
      if (param === 37446) return webglRenderer;
      return getParameter.call(this, param);
    };
  } catch (e) {}

  try {
    if (navigator.permissions && navigator.permissions.query) {
      const originalQuery = navigator.permissions.query.bind(navigator.permissions);
      navigator.permissions.query = (parameters) => {
        if (parameters && parameters.name === 'notifications') {
          return Promise.resolve({ state: Notification.permission });
        }
        return originalQuery(parameters);
      };
    }
  } catch (e) {}

  try {
    const descriptor = Object.getOwnPropertyDescriptor(HTMLIFrameElement.prototype, 'contentWindow');
    if (descriptor && descriptor.get) {
      const originalGet = descriptor.get;
      Object.defineProperty(HTMLIFrameElement.prototype, 'contentWindow', {
        get: function () {
          const win = originalGet.call(this);
          try {
            if (win && !win.chrome) win.chrome = makeChrome();
          } catch (e) { /* cross-origin frame */ }
          return win;
        },
        configurable: true,
      });
    }
  } catch (e) {}
})();`
