package transport_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/johnjansen/bayeux/broker"
	"github.com/johnjansen/bayeux/message"
	"github.com/johnjansen/bayeux/session"
	"github.com/johnjansen/bayeux/transport"
)

func TestScenarios(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "long-polling end-to-end scenarios")
}

func newScenarioTransport(cfg broker.Config) (*transport.Transport, *broker.Broker) {
	b := broker.New(cfg)
	return transport.New(b, cfg), b
}

func post(tr *transport.Transport, body string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/bayeux", strings.NewReader(body))
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	tr.ServeHTTP(rec, req)
	return rec
}

func decodeReplies(rec *httptest.ResponseRecorder) []*message.Message {
	var msgs []*message.Message
	Expect(json.Unmarshal(rec.Body.Bytes(), &msgs)).To(Succeed())
	return msgs
}

func cookieOf(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

var _ = Describe("handshake-only request", func() {
	It("returns a successful reply with a 40-hex clientId and a browser cookie", func() {
		cfg := broker.DefaultConfig()
		tr, b := newScenarioTransport(cfg)
		defer b.Close()

		rec := post(tr, `[{"channel":"/meta/handshake","version":"1.0","supportedConnectionTypes":["long-polling"]}]`)

		Expect(rec.Code).To(Equal(http.StatusOK))
		replies := decodeReplies(rec)
		Expect(replies).To(HaveLen(1))
		Expect(replies[0].IsSuccessful()).To(BeTrue())
		Expect(replies[0].ClientID).To(HaveLen(40))
		Expect(replies[0].Advice.Reconnect).To(Equal(message.ReconnectRetry))

		cookie := cookieOf(rec, cfg.BrowserCookieName)
		Expect(cookie).NotTo(BeNil())
		Expect(cookie.HttpOnly).To(BeTrue())
		Expect(cookie.Value).To(HaveLen(40))
	})
})

var _ = Describe("held connect returns on timeout", func() {
	It("holds for roughly the configured timeout then replies successfully", func() {
		cfg := broker.DefaultConfig()
		cfg.Timeout = 200
		tr, b := newScenarioTransport(cfg)
		defer b.Close()

		hsRec := post(tr, `[{"channel":"/meta/handshake","version":"1.0"}]`)
		clientID := decodeReplies(hsRec)[0].ClientID
		cookie := cookieOf(hsRec, cfg.BrowserCookieName)

		start := time.Now()
		rec := post(tr, `[{"channel":"/meta/connect","clientId":"`+clientID+`","connectionType":"long-polling"}]`, cookie)
		elapsed := time.Since(start)

		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(elapsed).To(BeNumerically(">=", 150*time.Millisecond))
		replies := decodeReplies(rec)
		Expect(replies).To(HaveLen(1))
		Expect(replies[0].IsSuccessful()).To(BeTrue())
	})
})

var _ = Describe("held connect wakes on publish", func() {
	It("completes promptly once another session publishes to a subscribed channel", func() {
		cfg := broker.DefaultConfig()
		cfg.Timeout = 5000
		tr, b := newScenarioTransport(cfg)
		defer b.Close()

		hsRec := post(tr, `[{"channel":"/meta/handshake","version":"1.0"}]`)
		clientID := decodeReplies(hsRec)[0].ClientID
		cookie := cookieOf(hsRec, cfg.BrowserCookieName)

		subRec := post(tr, `[{"channel":"/meta/subscribe","clientId":"`+clientID+`","subscription":"/foo"}]`, cookie)
		Expect(subRec.Code).To(Equal(http.StatusOK))

		done := make(chan *httptest.ResponseRecorder, 1)
		go func() {
			done <- post(tr, `[{"channel":"/meta/connect","clientId":"`+clientID+`","connectionType":"long-polling"}]`, cookie)
		}()
		time.Sleep(30 * time.Millisecond)

		pubHsRec := post(tr, `[{"channel":"/meta/handshake","version":"1.0"}]`)
		pubClientID := decodeReplies(pubHsRec)[0].ClientID
		pubCookie := cookieOf(pubHsRec, cfg.BrowserCookieName)
		pubRec := post(tr, `[{"channel":"/foo","clientId":"`+pubClientID+`","data":"data"}]`, pubCookie)
		Expect(pubRec.Code).To(Equal(http.StatusOK))

		var rec *httptest.ResponseRecorder
		Eventually(done, 2*time.Second).Should(Receive(&rec))
		Expect(rec.Code).To(Equal(http.StatusOK))

		replies := decodeReplies(rec)
		Expect(replies).To(HaveLen(2))
		Expect(replies[0].Channel).To(Equal("/foo"))
		Expect(replies[1].Channel).To(Equal("/meta/connect"))
		Expect(replies[1].IsSuccessful()).To(BeTrue())
	})
})

var _ = Describe("duplicate connect preempts", func() {
	It("answers the first held connect with the configured status and lets the second hold", func() {
		cfg := broker.DefaultConfig()
		cfg.Timeout = 300
		cfg.DuplicateMetaConnectHTTPResponseCode = 400
		tr, b := newScenarioTransport(cfg)
		defer b.Close()

		hsRec := post(tr, `[{"channel":"/meta/handshake","version":"1.0"}]`)
		clientID := decodeReplies(hsRec)[0].ClientID
		cookie := cookieOf(hsRec, cfg.BrowserCookieName)

		firstDone := make(chan *httptest.ResponseRecorder, 1)
		go func() {
			firstDone <- post(tr, `[{"channel":"/meta/connect","clientId":"`+clientID+`","connectionType":"long-polling"}]`, cookie)
		}()
		time.Sleep(30 * time.Millisecond)

		start := time.Now()
		secondRec := post(tr, `[{"channel":"/meta/connect","clientId":"`+clientID+`","connectionType":"long-polling"}]`, cookie)
		elapsed := time.Since(start)

		var firstRec *httptest.ResponseRecorder
		Eventually(firstDone, time.Second).Should(Receive(&firstRec))
		Expect(firstRec.Code).To(Equal(400))
		Expect(firstRec.Body.Len()).To(Equal(0))

		Expect(secondRec.Code).To(Equal(http.StatusOK))
		Expect(elapsed).To(BeNumerically(">=", 200*time.Millisecond))
	})
})

var _ = Describe("sweep expires idle session", func() {
	It("fires the removed listener with timedOut=true within a few sweep ticks", func() {
		cfg := broker.DefaultConfig()
		cfg.SweepPeriod = 50 * time.Millisecond
		cfg.MaxInterval = 100
		tr, b := newScenarioTransport(cfg)
		defer b.Close()

		removed := make(chan bool, 1)
		b.AddSessionRemovedListener(func(s *session.Session, timedOut bool) {
			removed <- timedOut
		})

		post(tr, `[{"channel":"/meta/handshake","version":"1.0"}]`)

		Eventually(removed, time.Second).Should(Receive(BeTrue()))
	})
})

var _ = Describe("ack replay", func() {
	It("advertises ack, returns batch numbers, and replays unacked messages on reconnect", func() {
		cfg := broker.DefaultConfig()
		cfg.Timeout = 5000
		tr, b := newScenarioTransport(cfg)
		defer b.Close()

		hsRec := post(tr, `[{"channel":"/meta/handshake","version":"1.0","ext":{"ack":true}}]`)
		hsReplies := decodeReplies(hsRec)
		Expect(hsReplies[0].Ext["ack"]).To(BeEquivalentTo(true))
		clientID := hsReplies[0].ClientID
		cookie := cookieOf(hsRec, cfg.BrowserCookieName)

		subRec := post(tr, `[{"channel":"/meta/subscribe","clientId":"`+clientID+`","subscription":"/foo"}]`, cookie)
		Expect(subRec.Code).To(Equal(http.StatusOK))

		firstConnectRec := post(tr, `[{"channel":"/meta/connect","clientId":"`+clientID+`","connectionType":"long-polling","ext":{"ack":-1}}]`, cookie)
		firstReplies := decodeReplies(firstConnectRec)
		Expect(firstReplies[len(firstReplies)-1].Ext["ack"]).To(BeEquivalentTo(0))

		done := make(chan *httptest.ResponseRecorder, 1)
		go func() {
			done <- post(tr, `[{"channel":"/meta/connect","clientId":"`+clientID+`","connectionType":"long-polling","ext":{"ack":0}}]`, cookie)
		}()
		time.Sleep(30 * time.Millisecond)

		pubHsRec := post(tr, `[{"channel":"/meta/handshake","version":"1.0"}]`)
		pubClientID := decodeReplies(pubHsRec)[0].ClientID
		pubCookie := cookieOf(pubHsRec, cfg.BrowserCookieName)
		post(tr, `[{"channel":"/foo","clientId":"`+pubClientID+`","data":"data"}]`, pubCookie)

		var rec *httptest.ResponseRecorder
		Eventually(done, 2*time.Second).Should(Receive(&rec))
		replies := decodeReplies(rec)

		var sawFoo, sawConnect bool
		for _, m := range replies {
			if m.Channel == "/foo" {
				sawFoo = true
			}
			if m.Channel == "/meta/connect" {
				sawConnect = true
			}
		}
		Expect(sawFoo).To(BeTrue())
		Expect(sawConnect).To(BeTrue())
	})
})
