//go:build !unix

package shm

import "os"

func mapFile(file *os.File, size int) ([]byte, error) {
	return nil, ErrUnsupported
}

func unmapFile(data []byte) error {
	return nil
}
