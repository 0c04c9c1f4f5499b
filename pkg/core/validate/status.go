package validate

import (
	"controlbot/pkg/core/utils"
	"controlbot/pkg/models"
)

// statusAliases are matched after folding (case, diacritics, punctuation).
// SAP PS system status codes are included.
var statusAliases = map[models.Status][]string{
	models.StatusPlanned: {
		"planned", "plan", "geplant", "not started", "nicht gestartet", "nicht begonnen", "new", "neu",
		"open", "offen", "todo", "to do", "backlog", "proposed", "beantragt", "angelegt", "eroeffnet", "erof",
	},
	models.StatusInProgress: {
		"in progress", "in arbeit", "in bearbeitung", "laufend", "läuft", "active", "aktiv", "ongoing",
		"running", "started", "gestartet", "wip", "doing", "in umsetzung", "umsetzung", "in durchführung",
		"freigegeben", "released", "frei", "teilfreigegeben", "teil", "on track",
	},
	models.StatusCompleted: {
		"completed", "complete", "done", "abgeschlossen", "fertig", "erledigt", "closed", "finished",
		"beendet", "delivered", "geliefert", "resolved", "abgs", "technisch abgeschlossen", "tabg",
	},
	models.StatusOnHold: {
		"on hold", "hold", "paused", "pausiert", "pause", "angehalten", "blocked", "blockiert",
		"zurückgestellt", "deferred", "waiting", "wartend", "ruhend", "gesperrt", "gesp",
	},
	models.StatusCancelled: {
		"cancelled", "canceled", "abgebrochen", "storniert", "gestrichen", "eingestellt", "aborted",
		"dropped", "verworfen", "löschvormerkung", "lövm",
	},
	models.StatusUnknown: {"unknown", "unbekannt", "n/a", "na", "tbd"},
}

var statusIndex = buildStatusIndex()

func buildStatusIndex() map[string]models.Status {
	idx := make(map[string]models.Status)
	for _, status := range models.AllStatuses {
		for _, alias := range statusAliases[status] {
			idx[utils.FoldKey(alias)] = status
		}
	}
	return idx
}

// ParseStatus maps a free-text status onto the enum. ok is false for
// blank or unrecognized text; the status is then Unknown.
func ParseStatus(raw string) (status models.Status, ok bool) {
	key := utils.FoldKey(raw)
	if key == "" {
		return models.StatusUnknown, false
	}
	if s, found := statusIndex[key]; found {
		return s, true
	}
	return models.StatusUnknown, false
}
