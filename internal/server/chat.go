package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"artemis/internal/assistant"
	"artemis/internal/metrics"
)

// Sentinel control strings the board client sends to resolve a held
// proposal. Anything else in the message field is free text.
const (
	MsgConfirmProposal = "USER_CONFIRMED_PROPOSAL"
	MsgCancelProposal  = "USER_CANCELLED_PROPOSAL"
)

const defaultUser = "User"

type chatRequest struct {
	Message           string              `json:"message"`
	CurrentUser       string              `json:"currentUser"`
	ProposalToConfirm *assistant.Proposal `json:"proposalToConfirm,omitempty"`
}

// chatResponse carries the display text plus, when the exchange produced
// a proposal, the proposal payload for the client to hold and echo back
// on confirmation. The server keeps no state across the round trip.
type chatResponse struct {
	ResponseText        string                  `json:"responseText"`
	Action              assistant.ActionType    `json:"action,omitempty"`
	Operations          []assistant.Operation   `json:"operations,omitempty"`
	ConfigChange        *assistant.ConfigChange `json:"configChange,omitempty"`
	OperationsProcessed bool                    `json:"operationsProcessed,omitempty"`
	AllSuccessful       *bool                   `json:"allSuccessful,omitempty"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Message == "" {
		s.writeError(w, http.StatusBadRequest, "no message provided")
		return
	}
	if req.CurrentUser == "" {
		req.CurrentUser = defaultUser
	}

	switch req.Message {
	case MsgConfirmProposal:
		if req.ProposalToConfirm == nil {
			s.writeError(w, http.StatusBadRequest, "confirmation received but no proposal was provided")
			return
		}
		summary := s.pipeline.Confirm(r.Context(), req.CurrentUser, req.ProposalToConfirm)
		metrics.ChatRequests.WithLabelValues("confirmed").Inc()
		s.writeJSON(w, http.StatusOK, chatResponse{
			ResponseText:        summary.Text(),
			OperationsProcessed: true,
			AllSuccessful:       &summary.AllSuccessful,
		})
		return

	case MsgCancelProposal:
		// The proposal is discarded unexecuted; nothing reaches the executor.
		metrics.ChatRequests.WithLabelValues("cancelled").Inc()
		s.writeJSON(w, http.StatusOK, chatResponse{
			ResponseText: "Okay, I've cancelled that. What would you like to do next?",
		})
		return
	}

	result, err := s.pipeline.HandleMessage(r.Context(), req.CurrentUser, req.Message)
	if err != nil {
		// Pipeline failures are normal, displayable outcomes on the
		// conversational channel, not HTTP errors.
		s.logger.Warn("chat pipeline failure", zap.Error(err))
		metrics.ChatRequests.WithLabelValues("pipeline_error").Inc()
		s.writeJSON(w, http.StatusOK, chatResponse{ResponseText: phraseFailure(err)})
		return
	}

	resp := chatResponse{ResponseText: result.ResponseText}
	if result.Proposal != nil {
		metrics.ChatRequests.WithLabelValues("proposal").Inc()
		resp.Action = result.Proposal.Action
		resp.Operations = result.Proposal.Operations
		resp.ConfigChange = result.Proposal.ConfigChange
	} else {
		metrics.ChatRequests.WithLabelValues("reply").Inc()
	}
	s.writeJSON(w, http.StatusOK, resp)
}

// phraseFailure maps the pipeline error taxonomy onto user-facing text.
func phraseFailure(err error) string {
	switch {
	case errors.Is(err, assistant.ErrUpstream):
		return "Sorry, I'm having trouble reaching my language model right now. Please try again in a moment."
	case errors.Is(err, assistant.ErrMalformedCompletion),
		errors.Is(err, assistant.ErrUnknownAction),
		errors.Is(err, assistant.ErrMissingField):
		return "I had a little trouble understanding that. Could you try rephrasing?"
	default:
		return "Something went wrong handling that request. Please try again."
	}
}
