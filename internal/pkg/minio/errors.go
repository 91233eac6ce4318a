package minio

import (
	"errors"
	"fmt"

	"github.com/minio/minio-go/v7"
)

var (
	ErrInvalidBucketName = errors.New("minio: invalid bucket name")
	ErrInvalidObjectName = errors.New("minio: invalid object name")
	ErrClientClosed      = errors.New("minio: client is closed")
	ErrOffline           = errors.New("minio: endpoint offline")
)

// Error 记录失败的操作和目标对象
type Error struct {
	Op     string
	Bucket string
	Object string
	Err    error
}

func (e *Error) Error() string {
	target := e.Bucket
	if e.Object != "" {
		target += "/" + e.Object
	}
	return fmt.Sprintf("minio: %s %s: %v", e.Op, target, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func wrap(op, bucket, object string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Op: op, Bucket: bucket, Object: object, Err: err}
}

// Code 返回服务端错误码，例如 NoSuchBucket；非服务端错误返回空串
func Code(err error) string {
	var resp minio.ErrorResponse
	if errors.As(err, &resp) {
		return resp.Code
	}
	return ""
}

func IsNotFound(err error) bool {
	switch Code(err) {
	case "NoSuchBucket", "NoSuchKey":
		return true
	}
	return false
}
