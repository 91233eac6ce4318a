package errors

import (
	"fmt"
	"net/http"
)

// Code represents an error code with HTTP status and message
type Code struct {
	Code    int    // Business error code
	Status  int    // HTTP status code
	Message string // Public error message
}

// Error codes for different modules
const (
	// Success
	Success = 0

	// Common errors (1000-1999)
	ErrInternalServer = 1000
	ErrInvalidParams  = 1001
	ErrNotFound       = 1002
	ErrBadRequest     = 1003
	ErrServiceUnavail = 1004
	ErrDatabase       = 1005
	ErrSearchIndex    = 1006
	ErrInvalidUUID    = 1007
	ErrInvalidBody    = 1008

	// Storage errors (2000-2999)
	ErrStorageCreateFailed   = 2000
	ErrStorageMetadataFailed = 2001
	ErrStorageInvalidOffset  = 2002
	ErrStorageStreamFailed   = 2003
	ErrStorageWriteFailed    = 2004
	ErrStorageHashFailed     = 2005
	ErrStorageSniffFailed    = 2006
	ErrStoragePromoteFailed  = 2007
	ErrStorageOpenFailed     = 2008
	ErrStorageRemoveFailed   = 2009

	// Upload framing errors (3000-3999)
	ErrNoFieldFound       = 3000
	ErrMultipleFieldFound = 3001
	ErrInvalidFileName    = 3002
	ErrInvalidRange       = 3003
	ErrMultipartBroken    = 3004

	// File and tag errors (4000-4999)
	ErrFileNotFound          = 4000
	ErrFilenameTooShort      = 4001
	ErrDuplicatedTagTemplate = 4002
	ErrInvalidTagTemplate    = 4003
	ErrMissingTagValue       = 4004
	ErrExtraTagValue         = 4005
	ErrInvalidTagValue       = 4006
	ErrExtraTagValueFilter   = 4007
	ErrInvalidTagValueFilter = 4008
	ErrFileIncomplete        = 4009
	ErrInvalidSearchPage     = 4010
	ErrUnsupportedTagFilter  = 4011
	ErrFileAlreadyUploaded   = 4012

	// Staging errors (5000-5999)
	ErrStagingNotFound = 5000

	// Tag template errors (6000-6999)
	ErrTagTemplateNotFound    = 6000
	ErrTagTemplateNameEmpty   = 6001
	ErrTagTemplateInvalidType = 6002

	// Collection errors (7000-7999)
	ErrCollectionNotFound   = 7000
	ErrCollectionNameEmpty  = 7001
	ErrCollectionPagination = 7002
)

// codeMap maps error codes to their details
var codeMap = map[int]Code{
	Success: {Success, http.StatusOK, "Success"},

	// Common errors
	ErrInternalServer: {ErrInternalServer, http.StatusInternalServerError, "Internal server error"},
	ErrInvalidParams:  {ErrInvalidParams, http.StatusUnprocessableEntity, "Invalid parameters"},
	ErrNotFound:       {ErrNotFound, http.StatusNotFound, "Resource not found"},
	ErrBadRequest:     {ErrBadRequest, http.StatusBadRequest, "Bad request"},
	ErrServiceUnavail: {ErrServiceUnavail, http.StatusServiceUnavailable, "Service unavailable"},
	ErrDatabase:       {ErrDatabase, http.StatusInternalServerError, "Database operation failed"},
	ErrSearchIndex:    {ErrSearchIndex, http.StatusInternalServerError, "Search index operation failed"},
	ErrInvalidUUID:    {ErrInvalidUUID, http.StatusBadRequest, "Invalid uuid"},
	ErrInvalidBody:    {ErrInvalidBody, http.StatusBadRequest, "Invalid request body"},

	// Storage errors
	ErrStorageCreateFailed:   {ErrStorageCreateFailed, http.StatusInternalServerError, "Failed to create stored object"},
	ErrStorageMetadataFailed: {ErrStorageMetadataFailed, http.StatusInternalServerError, "Failed to read stored object metadata"},
	ErrStorageInvalidOffset:  {ErrStorageInvalidOffset, http.StatusUnprocessableEntity, "Invalid offset"},
	ErrStorageStreamFailed:   {ErrStorageStreamFailed, http.StatusInternalServerError, "Failed to read from request stream"},
	ErrStorageWriteFailed:    {ErrStorageWriteFailed, http.StatusInternalServerError, "Failed to write stored object"},
	ErrStorageHashFailed:     {ErrStorageHashFailed, http.StatusInternalServerError, "Failed to hash stored object"},
	ErrStorageSniffFailed:    {ErrStorageSniffFailed, http.StatusInternalServerError, "Failed to detect mime type"},
	ErrStoragePromoteFailed:  {ErrStoragePromoteFailed, http.StatusInternalServerError, "Failed to promote staged object"},
	ErrStorageOpenFailed:     {ErrStorageOpenFailed, http.StatusInternalServerError, "Failed to open stored object"},
	ErrStorageRemoveFailed:   {ErrStorageRemoveFailed, http.StatusInternalServerError, "Failed to remove stored object"},

	// Upload framing errors
	ErrNoFieldFound:       {ErrNoFieldFound, http.StatusBadRequest, "No field found"},
	ErrMultipleFieldFound: {ErrMultipleFieldFound, http.StatusBadRequest, "Multiple fields found"},
	ErrInvalidFileName:    {ErrInvalidFileName, http.StatusBadRequest, "Invalid file name"},
	ErrInvalidRange:       {ErrInvalidRange, http.StatusBadRequest, "Invalid content range"},
	ErrMultipartBroken:    {ErrMultipartBroken, http.StatusBadRequest, "Malformed multipart body"},

	// File and tag errors
	ErrFileNotFound:          {ErrFileNotFound, http.StatusNotFound, "File not found"},
	ErrFilenameTooShort:      {ErrFilenameTooShort, http.StatusUnprocessableEntity, "Filename is too short"},
	ErrDuplicatedTagTemplate: {ErrDuplicatedTagTemplate, http.StatusUnprocessableEntity, "Duplicated tag template"},
	ErrInvalidTagTemplate:    {ErrInvalidTagTemplate, http.StatusUnprocessableEntity, "Invalid tag template"},
	ErrMissingTagValue:       {ErrMissingTagValue, http.StatusUnprocessableEntity, "Missing tag value"},
	ErrExtraTagValue:         {ErrExtraTagValue, http.StatusUnprocessableEntity, "Extra tag value"},
	ErrInvalidTagValue:       {ErrInvalidTagValue, http.StatusUnprocessableEntity, "Invalid tag value"},
	ErrExtraTagValueFilter:   {ErrExtraTagValueFilter, http.StatusUnprocessableEntity, "Extra tag value filter"},
	ErrInvalidTagValueFilter: {ErrInvalidTagValueFilter, http.StatusUnprocessableEntity, "Invalid tag value filter"},
	ErrFileIncomplete:        {ErrFileIncomplete, http.StatusNotFound, "File content not uploaded"},
	ErrInvalidSearchPage:     {ErrInvalidSearchPage, http.StatusBadRequest, "Invalid page"},
	ErrUnsupportedTagFilter:  {ErrUnsupportedTagFilter, http.StatusUnprocessableEntity, "Unsupported tag value filter"},
	ErrFileAlreadyUploaded:   {ErrFileAlreadyUploaded, http.StatusConflict, "File content already uploaded"},

	// Staging errors
	ErrStagingNotFound: {ErrStagingNotFound, http.StatusNotFound, "Staging not found"},

	// Tag template errors
	ErrTagTemplateNotFound:    {ErrTagTemplateNotFound, http.StatusNotFound, "Tag template not found"},
	ErrTagTemplateNameEmpty:   {ErrTagTemplateNameEmpty, http.StatusUnprocessableEntity, "Tag template name is empty"},
	ErrTagTemplateInvalidType: {ErrTagTemplateInvalidType, http.StatusUnprocessableEntity, "Invalid tag value type"},

	// Collection errors
	ErrCollectionNotFound:   {ErrCollectionNotFound, http.StatusNotFound, "Collection not found"},
	ErrCollectionNameEmpty:  {ErrCollectionNameEmpty, http.StatusUnprocessableEntity, "Collection name is empty"},
	ErrCollectionPagination: {ErrCollectionPagination, http.StatusBadRequest, "Invalid pagination parameters"},
}

// GetCode returns the Code for a given error code
func GetCode(code int) Code {
	if c, ok := codeMap[code]; ok {
		return c
	}
	return codeMap[ErrInternalServer]
}

// GetHTTPStatus returns HTTP status for a given error code
func GetHTTPStatus(code int) int {
	return GetCode(code).Status
}

// GetMessage returns the message for a given error code
func GetMessage(code int) string {
	return GetCode(code).Message
}

// FormatError formats an error message with code
func FormatError(code int, details ...string) string {
	msg := GetMessage(code)
	if len(details) > 0 && details[0] != "" {
		return fmt.Sprintf("%s: %s", msg, details[0])
	}
	return msg
}
