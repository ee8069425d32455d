package capture

import (
	"bytes"
	"fmt"
	"os/exec"
	"time"
)

// Decoding an arbitrary H264 window can hang on truncated input, so the
// subprocess gets a hard deadline.
const h264DecodeTimeout = 200 * time.Millisecond

// minJPEGSize filters out the stub outputs ffmpeg emits when the window held
// no complete frame.
const minJPEGSize = 1000

// h264ToJPEG decodes a window of H264 NAL data to a single JPEG frame using
// an ffmpeg pipe. Returns (nil, nil) when the window held no decodable frame,
// which is routine between keyframes.
func h264ToJPEG(nalData []byte) ([]byte, error) {
	if len(nalData) < 100 {
		return nil, nil
	}

	cmd := exec.Command("ffmpeg",
		"-f", "h264",
		"-i", "pipe:0",
		"-vframes", "1",
		"-f", "image2pipe",
		"-vcodec", "mjpeg",
		"-q:v", "3",
		"pipe:1",
	)

	var stdout bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = nil

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("ffmpeg stdin: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start ffmpeg: %w", err)
	}

	go func() {
		stdin.Write(nalData)
		stdin.Close()
	}()

	done := make(chan error, 1)
	go func() {
		done <- cmd.Wait()
	}()

	select {
	case err := <-done:
		if err != nil {
			// ffmpeg exits nonzero when the window lacks a full frame
			return nil, nil
		}
	case <-time.After(h264DecodeTimeout):
		cmd.Process.Kill()
		<-done
		return nil, nil
	}

	frame := stdout.Bytes()
	if len(frame) < minJPEGSize {
		return nil, nil
	}
	return frame, nil
}
