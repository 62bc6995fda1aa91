package asr

// fullRequest is the JSON configuration carried by the first frame of a
// session. Field names and nesting are fixed by the server contract.
type fullRequest struct {
	App     appSection     `json:"app"`
	User    userSection    `json:"user"`
	Request requestSection `json:"request"`
	Audio   audioSection   `json:"audio"`
}

type appSection struct {
	AppID   string `json:"appid"`
	Cluster string `json:"cluster"`
	Token   string `json:"token"`
}

type userSection struct {
	UID string `json:"uid"`
}

type requestSection struct {
	ReqID          string `json:"reqid"`
	Nbest          int    `json:"nbest"`
	Workflow       string `json:"workflow"`
	ShowLanguage   bool   `json:"show_language"`
	ShowUtterances bool   `json:"show_utterances"`
	ResultType     string `json:"result_type"`
	Sequence       int    `json:"sequence"`
}

type audioSection struct {
	Format   string `json:"format"`
	Rate     int    `json:"rate"`
	Language string `json:"language"`
	Bits     int    `json:"bits"`
	Channel  int    `json:"channel"`
	Codec    string `json:"codec"`
}

func (c Config) requestBody(reqID string, seq int) fullRequest {
	return fullRequest{
		App: appSection{
			AppID:   c.AppID,
			Cluster: c.Cluster,
			Token:   c.Token,
		},
		User: userSection{UID: c.UID},
		Request: requestSection{
			ReqID:          reqID,
			Nbest:          c.Nbest,
			Workflow:       c.Workflow,
			ShowLanguage:   c.ShowLanguage,
			ShowUtterances: c.ShowUtterances,
			ResultType:     c.ResultType,
			Sequence:       seq,
		},
		Audio: audioSection{
			Format:   c.Format,
			Rate:     c.SampleRate,
			Language: c.Language,
			Bits:     c.Bits,
			Channel:  c.Channels,
			Codec:    c.Codec,
		},
	}
}
