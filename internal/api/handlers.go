package api

import (
	"encoding/json"
	"net/http"
	"strconv"
)

// writeJSON writes a JSON response
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeError writes a JSON error response
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// parseID parses an ID from the URL path
func parseID(req *http.Request, param string) (int64, error) {
	idStr := req.PathValue(param)
	return strconv.ParseInt(idStr, 10, 64)
}

// handleGetNations returns all nations
func (r *Router) handleGetNations(w http.ResponseWriter, req *http.Request) {
	nations, err := r.store.ListNations(req.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, nations)
}

// handleGetNation returns a single nation with its member count
func (r *Router) handleGetNation(w http.ResponseWriter, req *http.Request) {
	id, err := parseID(req, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid nation id")
		return
	}

	nation, err := r.store.GetNationByID(req.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if nation == nil {
		writeError(w, http.StatusNotFound, "nation not found")
		return
	}

	memberCount, err := r.store.CountMembers(req.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"nation":       nation,
		"member_count": memberCount,
		"at_war":       r.svc.Wars.IsInWar(id),
	})
}

// handleGetNationTerritories returns a nation's claims
func (r *Router) handleGetNationTerritories(w http.ResponseWriter, req *http.Request) {
	id, err := parseID(req, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid nation id")
		return
	}

	territories, err := r.store.ListTerritoriesByNation(req.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, territories)
}

// handleGetNationWar returns a nation's current war, if any
func (r *Router) handleGetNationWar(w http.ResponseWriter, req *http.Request) {
	id, err := parseID(req, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid nation id")
		return
	}

	state, ok := r.svc.Wars.WarState(id)
	if !ok {
		writeError(w, http.StatusNotFound, "nation is not at war")
		return
	}
	writeJSON(w, http.StatusOK, state)
}

// handleGetTerritoryBuildings returns the constructions inside a territory
func (r *Router) handleGetTerritoryBuildings(w http.ResponseWriter, req *http.Request) {
	id, err := parseID(req, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid territory id")
		return
	}

	territory, err := r.store.GetTerritoryByID(req.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if territory == nil {
		writeError(w, http.StatusNotFound, "territory not found")
		return
	}

	buildings, err := r.store.ListBuildingsByTerritory(req.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, buildings)
}

// handleGetWarStatus returns matchmaking intake state and queue depth
func (r *Router) handleGetWarStatus(w http.ResponseWriter, req *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"match_open": r.svc.Wars.MatchOpen(),
		"queue_size": r.svc.Wars.QueueSize(),
	})
}

// handleSetMatchOpen opens or closes matchmaking intake (admin only)
func (r *Router) handleSetMatchOpen(w http.ResponseWriter, req *http.Request) {
	var body struct {
		Open bool `json:"open"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	r.svc.Wars.SetMatchOpen(body.Open)
	writeJSON(w, http.StatusOK, map[string]interface{}{"match_open": body.Open})
}

// handleClearQueue empties the matchmaking queue (admin only)
func (r *Router) handleClearQueue(w http.ResponseWriter, req *http.Request) {
	r.svc.Wars.ClearMatching()
	writeJSON(w, http.StatusOK, map[string]string{"message": "queue cleared"})
}

// handleHealth returns a simple health check response
func (r *Router) handleHealth(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}
