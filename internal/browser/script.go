package browser

// bindingName is the function the listener script calls to hand an
// event payload to the recorder.
const bindingName = "stepsnapEvent"

// listenerScript is installed on every new document. It reports clicks
// with viewport coordinates and a best-effort element descriptor,
// keyups on text inputs with the field's full current value (never a
// delta), and a bare capture trigger on F8. Element text is trimmed
// but not truncated here; display truncation happens downstream.
const listenerScript = `(() => {
	if (window.__stepsnapInstalled) return;
	window.__stepsnapInstalled = true;
	const send = (payload) => window.` + bindingName + `(JSON.stringify(payload));
	const textInputTypes = ['text', 'search', 'email', 'url', 'tel', 'password', 'number', ''];

	document.addEventListener('click', (e) => {
		const element = {};
		const t = e.target instanceof Element ? e.target : null;
		if (t) {
			if (t.id) element.id = t.id;
			const text = (t.textContent || '').trim();
			if (text) element.text = text;
			element.tagName = t.tagName.toLowerCase();
		}
		send({type: 'click', timestamp: Date.now(), coordinates: {x: e.clientX, y: e.clientY}, element: element});
	}, true);

	document.addEventListener('keyup', (e) => {
		const t = e.target;
		if (!t || !t.tagName) return;
		const tag = t.tagName.toLowerCase();
		const isText = tag === 'textarea' || (tag === 'input' && textInputTypes.includes(t.type || ''));
		if (!isText) return;
		send({type: 'type', timestamp: Date.now(), text: String(t.value ?? '')});
	}, true);

	document.addEventListener('keydown', (e) => {
		if (e.key === 'F8') {
			e.preventDefault();
			send({trigger: 'capture'});
		}
	}, true);
})();`
