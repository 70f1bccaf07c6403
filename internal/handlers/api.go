package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/shirou/gopsutil/disk"
	"github.com/shirou/gopsutil/mem"

	"showhound/internal/config"
	"showhound/internal/core"
	"showhound/internal/database/models"
	"showhound/internal/utils"
)

type APIHandler struct {
	manager *core.Manager
	logger  *utils.Logger
	config  *config.Config
}

func NewAPIHandler(manager *core.Manager, logger *utils.Logger, config *config.Config) *APIHandler {
	return &APIHandler{manager: manager, logger: logger, config: config}
}

// A helper function to respond with JSON
func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		json.NewEncoder(w).Encode(payload)
	}
}

// A helper function to respond with a JSON error
func respondError(w http.ResponseWriter, code int, message string) {
	respondJSON(w, code, map[string]string{"error": message})
}

// --- Wishlist ---

func (h *APIHandler) GetWishlist(w http.ResponseWriter, r *http.Request) {
	entries, err := h.manager.GetWishlist()
	if err != nil {
		h.logger.Error("Failed to fetch wishlist:", err)
		respondError(w, http.StatusInternalServerError, "Failed to fetch wishlist")
		return
	}
	if entries == nil {
		entries = []models.WishlistEntry{}
	}
	respondJSON(w, http.StatusOK, entries)
}

func (h *APIHandler) AddWishlist(w http.ResponseWriter, r *http.Request) {
	var entry models.WishlistEntry
	if err := json.NewDecoder(r.Body).Decode(&entry); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.manager.AddWishlistEntry(&entry); err != nil {
		if errors.Is(err, core.ErrInvalidEntry) {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Error("Failed to add wishlist entry:", err)
		respondError(w, http.StatusInternalServerError, "Failed to add wishlist entry")
		return
	}

	respondJSON(w, http.StatusCreated, entry)
}

func (h *APIHandler) UpdateWishlist(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid id")
		return
	}

	var entry models.WishlistEntry
	if err := json.NewDecoder(r.Body).Decode(&entry); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	entry.ID = id

	if err := h.manager.UpdateWishlistEntry(&entry); err != nil {
		if errors.Is(err, core.ErrInvalidEntry) {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Error("Failed to update wishlist entry:", err)
		respondError(w, http.StatusInternalServerError, "Failed to update wishlist entry")
		return
	}

	respondJSON(w, http.StatusOK, entry)
}

func (h *APIHandler) DeleteWishlist(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid id")
		return
	}

	if err := h.manager.DeleteWishlistEntry(id); err != nil {
		h.logger.Error("Failed to delete wishlist entry:", err)
		respondError(w, http.StatusInternalServerError, "Failed to delete wishlist entry")
		return
	}

	respondJSON(w, http.StatusNoContent, nil)
}

// --- Releases / downloads / matches ---

func (h *APIHandler) GetReleases(w http.ResponseWriter, r *http.Request) {
	days := 7
	if v := r.URL.Query().Get("days"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			days = parsed
		}
	}

	releases, err := h.manager.GetRecentReleases(time.Duration(days) * 24 * time.Hour)
	if err != nil {
		h.logger.Error("Failed to fetch releases:", err)
		respondError(w, http.StatusInternalServerError, "Failed to fetch releases")
		return
	}
	if releases == nil {
		releases = []models.Release{}
	}
	respondJSON(w, http.StatusOK, releases)
}

func (h *APIHandler) GetDownloads(w http.ResponseWriter, r *http.Request) {
	limit := 100
	if v := r.URL.Query().Get("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	downloads, err := h.manager.GetDownloads(limit)
	if err != nil {
		h.logger.Error("Failed to fetch downloads:", err)
		respondError(w, http.StatusInternalServerError, "Failed to fetch downloads")
		return
	}
	if downloads == nil {
		downloads = []models.Download{}
	}
	respondJSON(w, http.StatusOK, downloads)
}

// GetMatches runs a read-only matching pass and returns the would-be
// downloads, including any wishlist entries skipped for bad patterns.
func (h *APIHandler) GetMatches(w http.ResponseWriter, r *http.Request) {
	result, err := h.manager.PreviewMatches()
	if err != nil {
		h.logger.Error("Matching pass failed:", err)
		respondError(w, http.StatusInternalServerError, "Matching pass failed")
		return
	}
	if result.Candidates == nil {
		result.Candidates = []core.Candidate{}
	}
	respondJSON(w, http.StatusOK, result)
}

func (h *APIHandler) TriggerScan(w http.ResponseWriter, r *http.Request) {
	go h.manager.RunScan()
	respondJSON(w, http.StatusAccepted, map[string]string{"status": "scan started"})
}

// --- Status ---

func (h *APIHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	releases, downloads, wishlist, err := h.manager.Counts()
	if err != nil {
		h.logger.Error("Failed to fetch store counts:", err)
		respondError(w, http.StatusInternalServerError, "Failed to fetch status")
		return
	}

	status := map[string]interface{}{
		"releases":  releases,
		"downloads": downloads,
		"wishlist":  wishlist,
	}

	if usage, err := disk.Usage(h.manager.SaveDir()); err == nil {
		status["disk"] = map[string]interface{}{
			"path":         usage.Path,
			"free_bytes":   usage.Free,
			"total_bytes":  usage.Total,
			"used_percent": usage.UsedPercent,
		}
	}
	if vm, err := mem.VirtualMemory(); err == nil {
		status["memory"] = map[string]interface{}{
			"used_percent": vm.UsedPercent,
		}
	}

	respondJSON(w, http.StatusOK, status)
}

func (h *APIHandler) TestNotifications(w http.ResponseWriter, r *http.Request) {
	if err := h.manager.TestNotifiers(); err != nil {
		respondError(w, http.StatusBadGateway, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func parseID(r *http.Request) (int64, error) {
	return strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
}
