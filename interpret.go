package dbconn

import (
	"regexp"

	jsoniter "github.com/json-iterator/go"
)

var jsonAPI = jsoniter.ConfigCompatibleWithStandardLibrary

// jsonContentType matches content-types that trigger JSON parsing: anything
// carrying "json" or "javascript" as a media subtype.
var jsonContentType = regexp.MustCompile(`/(json|javascript)(\W|$)`)

// interpretResponse classifies and parses a transport result, applied once
// per non-redirected transport success, before any caller-supplied
// transformer runs.
func interpretResponse(res *transportResult, expectBinary bool) (*Response, error) {
	resp := &Response{
		StatusCode: res.StatusCode,
		Header:     res.Header,
		Raw:        res.Body,
		Host:       res.Host,
	}

	contentType := res.Header.Get(`content-type`)
	isJSON := jsonContentType.MatchString(contentType) && len(res.Body) > 0

	var parsed any
	var parseErr error
	if isJSON {
		if err := jsonAPI.Unmarshal(res.Body, &parsed); err != nil {
			if expectBinary {
				// binary output was requested: leave raw bytes, ignore the
				// parse failure entirely.
				resp.Body = res.Body
				parseErr = err
			} else {
				return nil, &ParseError{
					Raw:     res.Body,
					Partial: string(res.Body),
					Err:     err,
				}
			}
		}
	}

	if domainErr, ok := asDomainError(parsed); ok {
		return nil, domainErr
	}

	if res.StatusCode >= 400 {
		body := any(res.Body)
		if isJSON && parseErr == nil {
			body = parsed
		}
		return nil, &HTTPError{StatusCode: res.StatusCode, Body: body}
	}

	if expectBinary {
		resp.Body = res.Body
	} else if isJSON {
		resp.Body = parsed
	} else {
		resp.Body = string(res.Body)
	}

	return resp, nil
}

// asDomainError detects the database's structured error envelope -
// {error, code, errorMessage, errorNum} - regardless of HTTP status.
func asDomainError(parsed any) (*DomainError, bool) {
	obj, ok := parsed.(map[string]any)
	if !ok {
		return nil, false
	}

	_, hasError := obj[`error`]
	code, hasCode := obj[`code`]
	msg, hasMsg := obj[`errorMessage`]
	num, hasNum := obj[`errorNum`]
	if !hasError || !hasCode || !hasMsg || !hasNum {
		return nil, false
	}

	codeF, _ := code.(float64)
	numF, _ := num.(float64)
	msgS, _ := msg.(string)

	return &DomainError{
		Code:         int(codeF),
		ErrorMessage: msgS,
		ErrorNum:     int(numF),
	}, true
}
