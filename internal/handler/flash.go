package handler

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"
)

// FlashSessionCookie names the session cookie carrying pending flash messages.
const FlashSessionCookie = "lms_session"

const (
	flashStoreLocal = "flash_store"
	flashKeyPrefix  = "flash."
)

// Flash keys understood by the views.
const (
	flashMessage = "message"
	flashSuccess = "success"
	flashError   = "error"
)

var flashKeys = []string{flashMessage, flashSuccess, flashError}

// NewFlashStore builds the session store that holds flash messages between a
// redirect and the page it lands on.
func NewFlashStore(secure bool) *session.Store {
	return session.New(session.Config{
		Expiration:     10 * time.Minute,
		KeyLookup:      "cookie:" + FlashSessionCookie,
		CookiePath:     "/",
		CookieSecure:   secure,
		CookieHTTPOnly: true,
		CookieSameSite: fiber.CookieSameSiteLaxMode,
	})
}

// Flashes makes store available to the page handlers of the request.
func Flashes(store *session.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Locals(flashStoreLocal, store)
		return c.Next()
	}
}

func flashStore(c *fiber.Ctx) *session.Store {
	store, _ := c.Locals(flashStoreLocal).(*session.Store)
	return store
}

// setFlash queues a message for the next page render, surviving one redirect.
func setFlash(c *fiber.Ctx, key, message string) {
	store := flashStore(c)
	if store == nil {
		return
	}

	sess, err := store.Get(c)
	if err != nil {
		return
	}
	sess.Set(flashKeyPrefix+key, message)
	_ = sess.Save()
}

func consumeFlash(c *fiber.Ctx) map[string]string {
	store := flashStore(c)
	if store == nil {
		return nil
	}

	sess, err := store.Get(c)
	if err != nil || sess.Fresh() {
		return nil
	}

	flash := make(map[string]string, len(flashKeys))
	for _, key := range flashKeys {
		if message, ok := sess.Get(flashKeyPrefix + key).(string); ok {
			flash[key] = message
			sess.Delete(flashKeyPrefix + key)
		}
	}
	if len(flash) == 0 {
		return nil
	}

	_ = sess.Save()
	return flash
}

func redirectWithFlash(c *fiber.Ctx, location, key, message string) error {
	setFlash(c, key, message)
	return c.Redirect(location, fiber.StatusFound)
}
