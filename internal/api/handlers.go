package api

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/roach88/rollix/internal/record"
	"github.com/roach88/rollix/internal/store"
)

func parseUint(name, raw string) (uint64, error) {
	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, badRequest(fmt.Sprintf("%s must be an unsigned integer", name))
	}
	return v, nil
}

func playerParam(c echo.Context) (record.PlayerID, error) {
	pid1, err := parseUint("pid1", c.Param("pid1"))
	if err != nil {
		return record.PlayerID{}, err
	}
	pid2, err := parseUint("pid2", c.Param("pid2"))
	if err != nil {
		return record.PlayerID{}, err
	}
	return record.PlayerID{pid1, pid2}, nil
}

// pageParams reads skip and limit. A missing or zero limit takes the
// default; a limit above the maximum is clamped.
func (s *Server) pageParams(c echo.Context) (skip, limit int, err error) {
	if raw := c.QueryParam("skip"); raw != "" {
		skip, err = strconv.Atoi(raw)
		if err != nil || skip < 0 {
			return 0, 0, badRequest("skip must be a non-negative integer")
		}
	}
	if raw := c.QueryParam("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit < 0 {
			return 0, 0, badRequest("limit must be a non-negative integer")
		}
	}
	if limit == 0 {
		limit = s.limits.DefaultLimit
	}
	if limit > s.limits.MaxLimit {
		limit = s.limits.MaxLimit
	}
	return skip, limit, nil
}

func (s *Server) page(c echo.Context, kind record.Kind, filter store.Filter) error {
	skip, limit, err := s.pageParams(c)
	if err != nil {
		return err
	}
	page, err := s.reader.FindPage(c.Request().Context(), store.Query{
		Kind:   kind,
		Filter: filter,
		Skip:   skip,
		Limit:  limit,
	})
	if err != nil {
		return err
	}
	return okPage(c, page.Records, page.Total)
}

// getNugget returns the nugget as a one-element array, or an empty array.
func (s *Server) getNugget(c echo.Context) error {
	nid, err := parseUint("nid", c.Param("nid"))
	if err != nil {
		return err
	}
	page, err := s.reader.FindPage(c.Request().Context(), store.Query{
		Kind:   record.KindNugget,
		Filter: store.Filter{IDs: []uint64{nid}},
	})
	if err != nil {
		return err
	}
	return ok(c, page.Records)
}

// listNuggets accepts ids as repeated or comma-separated parameters.
// Without ids it pages through every nugget.
func (s *Server) listNuggets(c echo.Context) error {
	var ids []uint64
	for _, raw := range c.QueryParams()["ids"] {
		for _, part := range strings.Split(raw, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			id, err := parseUint("ids", part)
			if err != nil {
				return err
			}
			ids = append(ids, id)
		}
	}
	return s.page(c, record.KindNugget, store.Filter{IDs: ids})
}

// listMarkets pages through open markets.
func (s *Server) listMarkets(c echo.Context) error {
	return s.page(c, record.KindMarket, store.Filter{ExcludeSettled: true})
}

// listBids pages through open markets where the player holds the top bid.
func (s *Server) listBids(c echo.Context) error {
	player, err := playerParam(c)
	if err != nil {
		return err
	}
	return s.page(c, record.KindMarket, store.Filter{Bidder: &player, ExcludeSettled: true})
}

// listSales pages through open markets the player listed.
func (s *Server) listSales(c echo.Context) error {
	player, err := playerParam(c)
	if err != nil {
		return err
	}
	return s.page(c, record.KindMarket, store.Filter{Owner: &player, ExcludeSettled: true})
}

func (s *Server) listPositions(c echo.Context) error {
	player, err := playerParam(c)
	if err != nil {
		return err
	}
	return s.page(c, record.KindPosition, store.Filter{Player: &player})
}

func (s *Server) getObject(c echo.Context) error {
	index, err := parseUint("index", c.Param("index"))
	if err != nil {
		return err
	}
	obj, err := s.reader.Find(c.Request().Context(), record.IndexedObjectKey(index))
	if err != nil {
		return err
	}
	return ok(c, []record.Object{obj})
}

type checkpointView struct {
	ID       int64  `json:"id"`
	PreRoot  string `json:"pre_root"`
	PostRoot string `json:"post_root"`
	TxCount  int    `json:"tx_count"`
	RunID    string `json:"run_id"`
	Seq      int64  `json:"seq"`
}

func (s *Server) getCheckpoint(c echo.Context) error {
	commit, err := s.reader.LatestCommit(c.Request().Context())
	if err != nil {
		return err
	}
	return ok(c, []checkpointView{{
		ID:       commit.ID,
		PreRoot:  commit.PreRoot.String(),
		PostRoot: commit.PostRoot.String(),
		TxCount:  commit.TxCount,
		RunID:    commit.RunID,
		Seq:      commit.Seq,
	}})
}
