package progress

import (
	"fmt"
	"strings"

	"github.com/LuizLoyola/AATool/internal/tracker/catalog"
)

// scanDeathMessages matches every catalogued death against the session log,
// scoped to lines about the tracked player. The first matching candidate
// substring marks a death observed; later candidates are not checked.
func scanDeathMessages(cat *catalog.Catalog, logText, playerName string) Set {
	observed := Set{}
	logText = strings.ToLower(logText)
	prefix := fmt.Sprintf("[server thread/info]: %s ", strings.ToLower(playerName))

	for _, id := range cat.DeathOrder {
		for _, message := range cat.Deaths[id].Messages {
			if strings.Contains(logText, prefix+strings.ToLower(message)) {
				observed.Add(id)
				break
			}
		}
	}
	return observed
}
