package controllers

import (
	"errors"
	"log"
	"net/http"

	"github.com/dcode-github/property_dealer/backend/models"
	"github.com/dcode-github/property_dealer/backend/store"
	"github.com/dcode-github/property_dealer/backend/utils"
	"github.com/gorilla/mux"
)

type startChatRequest struct {
	OwnerID string `json:"ownerId" validate:"required"`
}

type messageRequest struct {
	Text string `json:"text" validate:"required,max=2000"`
}

// StartChat returns the conversation between the caller and ownerId,
// creating it on first contact.
func StartChat(chats store.ChatStore, users store.UserStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := currentUserID(w, r)
		if !ok {
			return
		}

		var req startChatRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		if req.OwnerID == userID {
			utils.WriteError(w, http.StatusBadRequest, "Cannot start a chat with yourself")
			return
		}
		if _, err := users.FindByID(r.Context(), req.OwnerID); err != nil {
			if errors.Is(err, store.ErrNotFound) || errors.Is(err, store.ErrInvalidID) {
				utils.WriteError(w, http.StatusNotFound, "User not found")
				return
			}
			log.Printf("Error looking up chat partner %s: %v", req.OwnerID, err)
			utils.WriteError(w, http.StatusInternalServerError, "Failed to start chat")
			return
		}

		chat, err := chats.FindOrCreate(r.Context(), userID, req.OwnerID)
		if err != nil {
			log.Printf("Error starting chat: %v", err)
			utils.WriteError(w, http.StatusInternalServerError, "Failed to start chat")
			return
		}
		respond(w, http.StatusOK, "", chat)
	}
}

func GetChats(chats store.ChatStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := currentUserID(w, r)
		if !ok {
			return
		}

		list, err := chats.ListForUser(r.Context(), userID)
		if err != nil {
			log.Printf("Error listing chats for %s: %v", userID, err)
			utils.WriteError(w, http.StatusInternalServerError, "Failed to fetch chats")
			return
		}
		respondList(w, "", list, len(list))
	}
}

func loadChat(w http.ResponseWriter, r *http.Request, chats store.ChatStore) (*models.Chat, string, bool) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return nil, "", false
	}

	chat, err := chats.FindByID(r.Context(), mux.Vars(r)["chatId"])
	switch {
	case errors.Is(err, store.ErrInvalidID), errors.Is(err, store.ErrNotFound):
		utils.WriteError(w, http.StatusNotFound, "Chat not found")
		return nil, "", false
	case err != nil:
		log.Printf("Error fetching chat: %v", err)
		utils.WriteError(w, http.StatusInternalServerError, "Failed to fetch chat")
		return nil, "", false
	}
	if !chat.HasParticipant(userID) {
		utils.WriteError(w, http.StatusForbidden, "Not authorized to access this chat")
		return nil, "", false
	}
	return chat, userID, true
}

func GetMessages(chats store.ChatStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		chat, _, ok := loadChat(w, r, chats)
		if !ok {
			return
		}

		msgs, err := chats.Messages(r.Context(), chat.ID.Hex())
		if err != nil {
			log.Printf("Error fetching messages of %s: %v", chat.ID.Hex(), err)
			utils.WriteError(w, http.StatusInternalServerError, "Failed to fetch messages")
			return
		}
		respondList(w, "", msgs, len(msgs))
	}
}

func SendMessage(chats store.ChatStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		chat, userID, ok := loadChat(w, r, chats)
		if !ok {
			return
		}

		var req messageRequest
		if !decodeJSON(w, r, &req) {
			return
		}

		msg := &models.Message{ChatID: chat.ID, SenderID: userID, Text: req.Text}
		if err := chats.AddMessage(r.Context(), msg); err != nil {
			log.Printf("Error sending message in %s: %v", chat.ID.Hex(), err)
			utils.WriteError(w, http.StatusInternalServerError, "Failed to send message")
			return
		}
		respond(w, http.StatusCreated, "", msg)
	}
}
