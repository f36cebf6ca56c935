package providers

import (
	"io"
	"net/http"
)

const maxBodyBytes = 4 << 20 // upstream pair lists stay well under 4MB

func readAll(resp *http.Response) ([]byte, error) {
	return io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
}
