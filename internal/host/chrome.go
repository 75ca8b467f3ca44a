package host

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"droqsdb/overseasreporter/internal/extract"
	"droqsdb/overseasreporter/logger"
	apperrors "droqsdb/overseasreporter/pkg/errors"

	"github.com/PuerkitoBio/goquery"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
)

const (
	mutationBinding = "__rvMutated"
	badgeID         = "rv-badge"

	startTimeout = 60 * time.Second
	opTimeout    = 10 * time.Second
)

// observerScript reports structural and text changes through the binding.
// Attribute changes are not observed, so snapshot annotation stays silent.
var observerScript = fmt.Sprintf(`(() => {
	const badge = %[1]q;
	const ours = (n) => n && n.nodeType === 1 && (n.id === badge || n.closest('#' + badge));
	const start = () => {
		new MutationObserver((records) => {
			for (const r of records) {
				const el = r.target.nodeType === 1 ? r.target : r.target.parentElement;
				if (ours(el)) continue;
				const nodes = [...r.addedNodes, ...r.removedNodes];
				if (nodes.length > 0 && nodes.every(ours)) continue;
				try { window[%[2]q](''); } catch (e) {}
				return;
			}
		}).observe(document.documentElement, {childList: true, subtree: true, characterData: true});
	};
	if (document.documentElement) start();
	else document.addEventListener('DOMContentLoaded', start);
})();`, badgeID, mutationBinding)

// snapshotScript marks rendered visibility and box sizes on every element,
// captures the markup, and removes the marks again.
var snapshotScript = fmt.Sprintf(`(() => {
	const hidden = %[1]q, box = %[2]q;
	const els = Array.from(document.querySelectorAll('body *'));
	for (const el of els) {
		const s = getComputedStyle(el);
		const r = el.getBoundingClientRect();
		if (el.id === %[3]q || s.display === 'none' || s.visibility === 'hidden' ||
			(el.getClientRects().length === 0 && s.display !== 'contents')) {
			el.setAttribute(hidden, '1');
		}
		el.setAttribute(box, Math.round(r.width) + ',' + Math.round(r.height));
	}
	const html = document.documentElement.outerHTML;
	for (const el of els) {
		el.removeAttribute(hidden);
		el.removeAttribute(box);
	}
	return html;
})()`, extract.HiddenAttr, extract.BoxAttr, badgeID)

const clickScript = `((sel) => {
	const el = document.querySelector(sel);
	if (!el) return false;
	el.scrollIntoView({block: 'center'});
	el.click();
	return true;
})(%s)`

const backdropScript = `(() => {
	const esc = {key: 'Escape', code: 'Escape', keyCode: 27, bubbles: true};
	document.dispatchEvent(new KeyboardEvent('keydown', esc));
	document.dispatchEvent(new KeyboardEvent('keyup', esc));
	const backdrop = document.querySelector("[class*='backdrop'], [class*='overlay___'], .modal-backdrop") ||
		document.elementFromPoint(4, 4);
	if (backdrop) backdrop.click();
	return true;
})()`

const badgeScript = `((id, text) => {
	let el = document.getElementById(id);
	if (!el) {
		el = document.createElement('div');
		el.id = id;
		el.setAttribute('aria-hidden', 'true');
		el.style.cssText = 'position:fixed;right:12px;bottom:12px;z-index:2147483647;' +
			'padding:6px 10px;border-radius:6px;font:12px sans-serif;' +
			'background:rgba(20,20,20,.85);color:#fff;pointer-events:none';
		document.body.appendChild(el);
	}
	el.textContent = text;
	el.style.display = text ? 'block' : 'none';
	return true;
})(%s, %s)`

// ChromeConfig configures the Chrome host
type ChromeConfig struct {
	URL       string
	RemoteURL string // DevTools websocket or http endpoint; empty starts a local browser
	Headless  bool
}

// Chrome drives a live page over the DevTools protocol.
type Chrome struct {
	notifier
	tab         context.Context
	cancelTab   context.CancelFunc
	cancelAlloc context.CancelFunc
	log         *logger.Logger
}

// NewChrome opens cfg.URL in a browser tab and starts watching it for
// changes
func NewChrome(ctx context.Context, cfg ChromeConfig) (*Chrome, error) {
	var allocCtx context.Context
	var cancelAlloc context.CancelFunc
	if cfg.RemoteURL != "" {
		allocCtx, cancelAlloc = chromedp.NewRemoteAllocator(ctx, cfg.RemoteURL)
	} else {
		opts := append(chromedp.DefaultExecAllocatorOptions[:],
			chromedp.Flag("headless", cfg.Headless),
			chromedp.Flag("disable-gpu", true),
			chromedp.Flag("disable-blink-features", "AutomationControlled"),
		)
		allocCtx, cancelAlloc = chromedp.NewExecAllocator(ctx, opts...)
	}

	log := logger.ForHost("chrome")
	tab, cancelTab := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(format string, v ...interface{}) {
		log.Debug().Msgf(format, v...)
	}))

	c := &Chrome{
		notifier:    newNotifier(),
		tab:         tab,
		cancelTab:   cancelTab,
		cancelAlloc: cancelAlloc,
		log:         log,
	}

	chromedp.ListenTarget(tab, func(ev interface{}) {
		if e, ok := ev.(*runtime.EventBindingCalled); ok && e.Name == mutationBinding {
			c.notify()
		}
	})

	startCtx, cancel := context.WithTimeout(tab, startTimeout)
	defer cancel()
	err := chromedp.Run(startCtx,
		runtime.Enable(),
		runtime.AddBinding(mutationBinding),
		chromedp.ActionFunc(func(ctx context.Context) error {
			_, err := page.AddScriptToEvaluateOnNewDocument(observerScript).Do(ctx)
			return err
		}),
		chromedp.Navigate(cfg.URL),
	)
	if err != nil {
		c.Close()
		return nil, apperrors.NewHost("chrome", "failed to open page", err)
	}

	log.Info().Str("url", cfg.URL).Msg("Page opened")
	return c, nil
}

// run executes actions on the tab, bounded by opTimeout and by ctx.
func (c *Chrome) run(ctx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithTimeout(c.tab, opTimeout)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()
	return chromedp.Run(runCtx, actions...)
}

// Snapshot captures the page markup with visibility annotations
func (c *Chrome) Snapshot(ctx context.Context) (*goquery.Document, error) {
	var markup string
	if err := c.run(ctx, chromedp.Evaluate(snapshotScript, &markup)); err != nil {
		return nil, apperrors.NewHost("chrome", "snapshot failed", err)
	}
	return parse(markup)
}

// Click activates the element addressed by selector
func (c *Chrome) Click(ctx context.Context, selector string) error {
	var clicked bool
	if err := c.run(ctx, chromedp.Evaluate(fmt.Sprintf(clickScript, quote(selector)), &clicked)); err != nil {
		return apperrors.NewHost("chrome", "click failed", err)
	}
	if !clicked {
		return apperrors.NewHost("chrome", fmt.Sprintf("no element matches %s", selector), nil)
	}
	return nil
}

// ClickBackdrop sends Escape and clicks outside any open overlay
func (c *Chrome) ClickBackdrop(ctx context.Context) error {
	var ok bool
	if err := c.run(ctx, chromedp.Evaluate(backdropScript, &ok)); err != nil {
		return apperrors.NewHost("chrome", "backdrop dismiss failed", err)
	}
	return nil
}

// ShowBadge writes text into the on-page status badge
func (c *Chrome) ShowBadge(ctx context.Context, text string) error {
	var ok bool
	if err := c.run(ctx, chromedp.Evaluate(fmt.Sprintf(badgeScript, quote(badgeID), quote(text)), &ok)); err != nil {
		return apperrors.NewHost("chrome", "badge update failed", err)
	}
	return nil
}

// HideBadge hides the on-page status badge
func (c *Chrome) HideBadge(ctx context.Context) error {
	return c.ShowBadge(ctx, "")
}

// Close closes the tab and the browser allocator
func (c *Chrome) Close() error {
	c.cancelTab()
	c.cancelAlloc()
	return nil
}

// quote renders s as a JavaScript string literal.
func quote(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}
