package geo

// subDistrictJSON holds two Eastern province sub-districts as unit squares.
const subDistrictJSON = `{
  "type": "FeatureCollection",
  "features": [
    {
      "type": "Feature",
      "properties": {"GID_2": "LKA.1.1_1", "NAME_1": "Batticaloa", "NAME_2": "ManmunaiNorth"},
      "geometry": {"type": "Polygon", "coordinates": [[[81.0, 7.0], [82.0, 7.0], [82.0, 8.0], [81.0, 8.0], [81.0, 7.0]]]}
    },
    {
      "type": "Feature",
      "properties": {"GID_2": "LKA.1.2_1", "NAME_1": "Batticaloa", "NAME_2": "Eravur"},
      "geometry": {"type": "Polygon", "coordinates": [[[82.0, 7.0], [83.0, 7.0], [83.0, 8.0], [82.0, 8.0], [82.0, 7.0]]]}
    },
    {
      "type": "Feature",
      "properties": {"NAME_1": "Trincomalee", "NAME_2": "Kinniya"},
      "geometry": null
    }
  ]
}`
