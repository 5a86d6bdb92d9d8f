package taxation

import jsoniter "github.com/json-iterator/go"

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// EncodeItemIDs serializes a mapping for storage
func EncodeItemIDs(ids ItemIDs) ([]byte, error) {
	if ids == nil {
		ids = ItemIDs{}
	}
	return json.Marshal(ids)
}

// DecodeItemIDs parses a stored mapping. Empty input gives an empty mapping.
func DecodeItemIDs(data []byte) (ItemIDs, error) {
	ids := ItemIDs{}
	if len(data) == 0 {
		return ids, nil
	}
	if err := json.Unmarshal(data, &ids); err != nil {
		return nil, err
	}
	return ids, nil
}
