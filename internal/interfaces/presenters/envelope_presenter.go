package presenters

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/takutakahashi/seo-agent-proxy/internal/usecases/ports/services"
	"github.com/takutakahashi/seo-agent-proxy/pkg/agent"
	"github.com/takutakahashi/seo-agent-proxy/pkg/utils"
)

// EnvelopePresenter turns orchestrator outcomes into ResponseEnvelope answers
type EnvelopePresenter struct{}

// NewEnvelopePresenter creates a new EnvelopePresenter
func NewEnvelopePresenter() *EnvelopePresenter {
	return &EnvelopePresenter{}
}

// Translate maps the result of one forward call to a status code and envelope.
//
//	2xx + JSON body      -> 200 {ok:true, data}
//	2xx + non-JSON body  -> 502 malformed_response
//	non-2xx              -> orchestrator status, error = body text
//	transport failure    -> 500 orchestrator_unreachable / orchestrator_timeout
func (p *EnvelopePresenter) Translate(resp *services.ForwardResponse, err error) (int, *agent.ResponseEnvelope) {
	if err != nil {
		var transportErr *services.TransportError
		if errors.As(err, &transportErr) && transportErr.Timeout {
			return http.StatusInternalServerError, failure(agent.CodeOrchestratorTimeout, err.Error())
		}
		return http.StatusInternalServerError, failure(agent.CodeOrchestratorUnreachable, errorMessage(err))
	}
	if resp == nil {
		return http.StatusInternalServerError, failure(agent.CodeOrchestratorUnreachable, "Unknown error")
	}

	if !utils.IsSuccess(resp.StatusCode) {
		status := resp.StatusCode
		if status < http.StatusBadRequest {
			// 1xx/3xx cannot carry an envelope body
			status = http.StatusBadGateway
		}
		msg := string(resp.Body)
		if strings.TrimSpace(msg) == "" {
			msg = "orchestrator returned " + http.StatusText(resp.StatusCode)
		}
		return status, failure(agent.CodeOrchestratorRejected, msg)
	}

	data := bytes.TrimSpace(resp.Body)
	if len(data) == 0 || !json.Valid(data) {
		return http.StatusBadGateway, failure(agent.CodeMalformedResponse, "orchestrator returned a malformed JSON response")
	}

	return http.StatusOK, &agent.ResponseEnvelope{
		OK:   true,
		Data: json.RawMessage(data),
	}
}

// Present writes the translated outcome
func (p *EnvelopePresenter) Present(c echo.Context, resp *services.ForwardResponse, err error) error {
	status, envelope := p.Translate(resp, err)
	return c.JSON(status, envelope)
}

// PresentError writes a failure envelope that did not come from the orchestrator
func (p *EnvelopePresenter) PresentError(c echo.Context, status int, code agent.ErrorCode, message string) error {
	return c.JSON(status, failure(code, message))
}

func failure(code agent.ErrorCode, message string) *agent.ResponseEnvelope {
	return &agent.ResponseEnvelope{
		OK:    false,
		Error: message,
		Code:  code,
	}
}

func errorMessage(err error) string {
	if msg := err.Error(); msg != "" {
		return msg
	}
	return "Unknown error"
}
