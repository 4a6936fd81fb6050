package distribution

import (
	"encoding/json"
	"net/http"

	"oci-registry-service/pkg/oci"
)

// ErrRegistry is the text of every ErrorResponse.
const ErrRegistry = "distribution: registry returned error"

// ErrorCode is one of the error codes defined by the distribution API.
type ErrorCode string

const (
	CodeBlobUnknown         ErrorCode = "BLOB_UNKNOWN"
	CodeBlobUploadInvalid   ErrorCode = "BLOB_UPLOAD_INVALID"
	CodeBlobUploadUnknown   ErrorCode = "BLOB_UPLOAD_UNKNOWN"
	CodeDigestInvalid       ErrorCode = "DIGEST_INVALID"
	CodeManifestBlobUnknown ErrorCode = "MANIFEST_BLOB_UNKNOWN"
	CodeManifestInvalid     ErrorCode = "MANIFEST_INVALID"
	CodeManifestUnknown     ErrorCode = "MANIFEST_UNKNOWN"
	CodeNameInvalid         ErrorCode = "NAME_INVALID"
	CodeNameUnknown         ErrorCode = "NAME_UNKNOWN"
	CodeSizeInvalid         ErrorCode = "SIZE_INVALID"
	CodeUnauthorized        ErrorCode = "UNAUTHORIZED"
	CodeDenied              ErrorCode = "DENIED"
	CodeUnsupported         ErrorCode = "UNSUPPORTED"
	CodeTooManyRequests     ErrorCode = "TOOMANYREQUESTS"
)

type codeInfo struct {
	status  int
	message string
}

var errorCodes = map[ErrorCode]codeInfo{
	CodeBlobUnknown:         {http.StatusNotFound, "blob unknown to registry"},
	CodeBlobUploadInvalid:   {http.StatusBadRequest, "blob upload invalid"},
	CodeBlobUploadUnknown:   {http.StatusNotFound, "blob upload unknown to registry"},
	CodeDigestInvalid:       {http.StatusBadRequest, "provided digest did not match uploaded content"},
	CodeManifestBlobUnknown: {http.StatusNotFound, "manifest references a manifest or blob unknown to registry"},
	CodeManifestInvalid:     {http.StatusBadRequest, "manifest invalid"},
	CodeManifestUnknown:     {http.StatusNotFound, "manifest unknown to registry"},
	CodeNameInvalid:         {http.StatusBadRequest, "invalid repository name"},
	CodeNameUnknown:         {http.StatusNotFound, "repository name not known to registry"},
	CodeSizeInvalid:         {http.StatusBadRequest, "provided length did not match content length"},
	CodeUnauthorized:        {http.StatusUnauthorized, "authentication required"},
	CodeDenied:              {http.StatusForbidden, "requested access to the resource is denied"},
	CodeUnsupported:         {http.StatusMethodNotAllowed, "the operation is unsupported"},
	CodeTooManyRequests:     {http.StatusTooManyRequests, "too many requests"},
}

// HTTPStatus is the status a registry answers with for the code.
func (c ErrorCode) HTTPStatus() int {
	if info, ok := errorCodes[c]; ok {
		return info.status
	}
	return http.StatusInternalServerError
}

// Message is the default human readable text for the code.
func (c ErrorCode) Message() string { return errorCodes[c].message }

func (c ErrorCode) String() string { return string(c) }

func (c *ErrorCode) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	if _, ok := errorCodes[ErrorCode(s)]; !ok {
		return oci.Other("unknown error code %q", s)
	}
	*c = ErrorCode(s)
	return nil
}

// ErrorInfo is a single entry of an ErrorResponse.
type ErrorInfo struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message,omitempty"`
	Detail  string    `json:"detail,omitempty"`
}

// NewErrorInfo uses the default message of code when message is empty.
func NewErrorInfo(code ErrorCode, message, detail string) ErrorInfo {
	if message == "" {
		message = code.Message()
	}
	return ErrorInfo{Code: code, Message: message, Detail: detail}
}

// ErrorResponse is the body of a failed registry request.
type ErrorResponse struct {
	Errors []ErrorInfo `json:"errors"`
}

func NewErrorResponse(infos ...ErrorInfo) *ErrorResponse {
	if infos == nil {
		infos = []ErrorInfo{}
	}
	return &ErrorResponse{Errors: infos}
}

func (e *ErrorResponse) Error() string { return ErrRegistry }

func (e *ErrorResponse) Detail() []ErrorInfo { return e.Errors }

// HTTPStatus is the status of the first error, or 500 for an empty response.
func (e *ErrorResponse) HTTPStatus() int {
	if len(e.Errors) == 0 {
		return http.StatusInternalServerError
	}
	return e.Errors[0].Code.HTTPStatus()
}

// Validate requires the errors field to be present.
func (e *ErrorResponse) Validate() error {
	if e.Errors == nil {
		return oci.Builder("field %q is required", "errors")
	}
	for i, info := range e.Errors {
		if info.Code == "" {
			return oci.Builder("errors[%d]: field %q is required", i, "code")
		}
	}
	return nil
}
