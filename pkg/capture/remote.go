package capture

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image"
	"image/jpeg"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/pion/rtp"
	"github.com/pion/webrtc/v3"

	"github.com/pixelgrove/qrscan/internal/log"
)

// RemoteConfig configures a remote WebRTC camera source.
type RemoteConfig struct {
	SignallingURL  string        // GStreamer-style signalling server (ws://host:8443)
	ProducerName   string        // Producer to attach to, matched against meta name
	DecodeInterval time.Duration // How often accumulated H264 data is decoded
	ConnectTimeout time.Duration // Overall budget for signalling + first frame
}

// DefaultRemoteConfig returns the recommended remote source configuration.
func DefaultRemoteConfig(signallingURL string) RemoteConfig {
	return RemoteConfig{
		SignallingURL:  signallingURL,
		ProducerName:   "camera",
		DecodeInterval: 100 * time.Millisecond,
		ConnectTimeout: 15 * time.Second,
	}
}

// Remote pulls frames from a remote camera over WebRTC. It attaches to a
// producer via a websocket signalling server, receives the H264 track, and
// keeps the most recently decoded frame available for sampling.
type Remote struct {
	cfg RemoteConfig

	ws   *websocket.Conn
	wsMu sync.Mutex
	pc   *webrtc.PeerConnection

	peerID     string
	producerID string
	sessionID  string

	latest   []byte // JPEG of the most recent decoded frame
	width    int
	height   int
	latestMu sync.RWMutex

	trackReady chan struct{}

	mu     sync.Mutex
	closed bool
}

type signalMessage struct {
	Type      string `json:"type"`
	PeerID    string `json:"peerId,omitempty"`
	SessionID string `json:"sessionId,omitempty"`
	Producers []struct {
		ID   string            `json:"id"`
		Meta map[string]string `json:"meta"`
	} `json:"producers,omitempty"`
	SDP *struct {
		Type string `json:"type"`
		SDP  string `json:"sdp"`
	} `json:"sdp,omitempty"`
	ICE *struct {
		Candidate     string  `json:"candidate"`
		SDPMid        *string `json:"sdpMid"`
		SDPMLineIndex *uint16 `json:"sdpMLineIndex"`
	} `json:"ice,omitempty"`
}

// OpenRemote connects to the signalling server, negotiates a recv-only video
// session with the named producer, and blocks until the video track arrives.
func OpenRemote(cfg RemoteConfig) (*Remote, error) {
	r := &Remote{
		cfg:        cfg,
		trackReady: make(chan struct{}, 1),
	}

	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	ws, _, err := dialer.Dial(cfg.SignallingURL, nil)
	if err != nil {
		return nil, fmt.Errorf("signalling connect: %w", err)
	}
	r.ws = ws

	if err := r.handshake(); err != nil {
		ws.Close()
		return nil, err
	}

	if err := r.createPeerConnection(); err != nil {
		ws.Close()
		return nil, fmt.Errorf("peer connection: %w", err)
	}

	if err := r.send(map[string]string{"type": "startSession", "peerId": r.producerID}); err != nil {
		r.Close()
		return nil, fmt.Errorf("start session: %w", err)
	}

	go r.handleSignalling()

	select {
	case <-r.trackReady:
		log.Info("remote camera connected", "producer", r.producerID)
	case <-time.After(cfg.ConnectTimeout):
		r.Close()
		return nil, fmt.Errorf("timeout waiting for remote video track")
	}

	return r, nil
}

// handshake waits for the welcome message and locates the producer.
func (r *Remote) handshake() error {
	var welcome signalMessage
	if err := r.readTimeout(&welcome, 10*time.Second); err != nil {
		return fmt.Errorf("welcome: %w", err)
	}
	if welcome.Type != "welcome" {
		return fmt.Errorf("expected welcome, got %s", welcome.Type)
	}
	r.peerID = welcome.PeerID

	if err := r.send(map[string]string{"type": "list"}); err != nil {
		return err
	}

	var list signalMessage
	if err := r.readTimeout(&list, 5*time.Second); err != nil {
		return fmt.Errorf("producer list: %w", err)
	}
	for _, p := range list.Producers {
		if p.Meta["name"] == r.cfg.ProducerName {
			r.producerID = p.ID
			return nil
		}
	}
	return fmt.Errorf("producer %q not found among %d producers", r.cfg.ProducerName, len(list.Producers))
}

func (r *Remote) readTimeout(dst *signalMessage, timeout time.Duration) error {
	r.ws.SetReadDeadline(time.Now().Add(timeout))
	defer r.ws.SetReadDeadline(time.Time{})

	_, raw, err := r.ws.ReadMessage()
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, dst)
}

func (r *Remote) send(v interface{}) error {
	r.wsMu.Lock()
	defer r.wsMu.Unlock()
	return r.ws.WriteJSON(v)
}

// session reads the session id. The signalling goroutine writes it while
// pion's ICE callback goroutine reads it.
func (r *Remote) session() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sessionID
}

func (r *Remote) setSession(id string) {
	r.mu.Lock()
	r.sessionID = id
	r.mu.Unlock()
}

func (r *Remote) createPeerConnection() error {
	pc, err := webrtc.NewPeerConnection(webrtc.Configuration{})
	if err != nil {
		return err
	}
	r.pc = pc

	if _, err := pc.AddTransceiverFromKind(webrtc.RTPCodecTypeVideo, webrtc.RTPTransceiverInit{
		Direction: webrtc.RTPTransceiverDirectionRecvonly,
	}); err != nil {
		return err
	}

	pc.OnTrack(func(track *webrtc.TrackRemote, _ *webrtc.RTPReceiver) {
		if track.Kind() == webrtc.RTPCodecTypeVideo {
			log.Debug("remote video track", "codec", track.Codec().MimeType)
			go r.consumeTrack(track)
		}
	})

	pc.OnICECandidate(func(candidate *webrtc.ICECandidate) {
		sessionID := r.session()
		if candidate == nil || sessionID == "" {
			return
		}
		init := candidate.ToJSON()
		r.send(map[string]interface{}{
			"type":      "peer",
			"sessionId": sessionID,
			"ice": map[string]interface{}{
				"candidate":     init.Candidate,
				"sdpMid":        init.SDPMid,
				"sdpMLineIndex": init.SDPMLineIndex,
			},
		})
	})

	return nil
}

func (r *Remote) handleSignalling() {
	for {
		_, raw, err := r.ws.ReadMessage()
		if err != nil {
			r.mu.Lock()
			closed := r.closed
			r.mu.Unlock()
			if !closed {
				log.Warn("signalling read failed", "error", err)
			}
			return
		}

		var msg signalMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			continue
		}

		switch msg.Type {
		case "sessionStarted":
			r.setSession(msg.SessionID)
		case "peer":
			r.handlePeer(msg)
		case "endSession":
			return
		}
	}
}

func (r *Remote) handlePeer(msg signalMessage) {
	if msg.SDP != nil && msg.SDP.Type == "offer" {
		offer := webrtc.SessionDescription{Type: webrtc.SDPTypeOffer, SDP: msg.SDP.SDP}
		if err := r.pc.SetRemoteDescription(offer); err != nil {
			log.Warn("set remote description failed", "error", err)
			return
		}

		answer, err := r.pc.CreateAnswer(nil)
		if err != nil {
			log.Warn("create answer failed", "error", err)
			return
		}
		if err := r.pc.SetLocalDescription(answer); err != nil {
			log.Warn("set local description failed", "error", err)
			return
		}

		r.send(map[string]interface{}{
			"type":      "peer",
			"sessionId": r.session(),
			"sdp": map[string]string{
				"type": answer.Type.String(),
				"sdp":  answer.SDP,
			},
		})
	}

	if msg.ICE != nil {
		r.pc.AddICECandidate(webrtc.ICECandidateInit{
			Candidate:     msg.ICE.Candidate,
			SDPMid:        msg.ICE.SDPMid,
			SDPMLineIndex: msg.ICE.SDPMLineIndex,
		})
	}
}

// consumeTrack accumulates H264 RTP payloads and decodes a frame out of the
// accumulated window once per decode interval.
func (r *Remote) consumeTrack(track *webrtc.TrackRemote) {
	select {
	case r.trackReady <- struct{}{}:
	default:
	}

	var window bytes.Buffer
	lastDecode := time.Now()

	for {
		r.mu.Lock()
		closed := r.closed
		r.mu.Unlock()
		if closed {
			return
		}

		var pkt *rtp.Packet
		pkt, _, err := track.ReadRTP()
		if err != nil {
			return
		}
		window.Write(pkt.Payload)

		// Decode at access-unit boundaries (marker bit), rate limited
		if !pkt.Marker || time.Since(lastDecode) < r.cfg.DecodeInterval {
			continue
		}
		lastDecode = time.Now()

		frame, err := h264ToJPEG(window.Bytes())
		window.Reset()
		if err != nil || frame == nil {
			continue
		}

		cfg, err := jpeg.DecodeConfig(bytes.NewReader(frame))
		if err != nil {
			continue
		}

		r.latestMu.Lock()
		r.latest = frame
		r.width = cfg.Width
		r.height = cfg.Height
		r.latestMu.Unlock()
	}
}

// Read decodes and returns the most recent frame.
func (r *Remote) Read() (image.Image, error) {
	r.latestMu.RLock()
	frame := r.latest
	r.latestMu.RUnlock()

	if frame == nil {
		return nil, ErrNoFrame
	}

	img, err := jpeg.Decode(bytes.NewReader(frame))
	if err != nil {
		return nil, fmt.Errorf("decode remote frame: %w", err)
	}
	return img, nil
}

// Bounds returns the dimensions of the most recent frame, or zeros before
// the first frame arrives.
func (r *Remote) Bounds() (int, int) {
	r.latestMu.RLock()
	defer r.latestMu.RUnlock()
	return r.width, r.height
}

// Close tears down the peer connection and signalling socket.
func (r *Remote) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	r.mu.Unlock()

	if r.pc != nil {
		r.pc.Close()
	}
	if r.ws != nil {
		return r.ws.Close()
	}
	return nil
}
