package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/rafiabim35-star/web-topup-robekcviip/utils"
)

// DecodeJSON decodes a JSON payload into dst and runs utils.ValidateStruct.
// Unknown fields are rejected so typos in client payloads fail loudly.
func DecodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		utils.WriteError(w, http.StatusBadRequest, utils.ReasonInvalidJSON)
		return err
	}
	if err := utils.ValidateStruct(dst); err != nil {
		utils.WriteError(w, http.StatusBadRequest, utils.ReasonMissingFields)
		return err
	}
	return nil
}
